package engine_test

import (
	"context"
	"fmt"

	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/engine"
	"github.com/LerianStudio/payments-engine/payments/transaction"
)

func ExampleEngine_Apply() {
	ctx := context.Background()
	ten, _ := currency.Parse("10")

	e := engine.New(engine.WithRejectionHook(func(r engine.Rejection) {
		fmt.Println("dropped:", r.Event.Type, r.Err.Code)
	}))

	_ = e.Apply(ctx, transaction.Deposit(2, 10, ten))
	_ = e.Apply(ctx, transaction.Dispute(2, 10))
	_ = e.Apply(ctx, transaction.Chargeback(2, 10))
	_ = e.Apply(ctx, transaction.Deposit(2, 11, ten))

	acct, _ := e.Account(2)
	fmt.Println(acct.Available, acct.Held, acct.Total, acct.Locked)

	// Output:
	// dropped: deposit 0024
	// 0.0000 0.0000 0.0000 true
}
