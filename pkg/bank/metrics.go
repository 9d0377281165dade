package bank

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/metrics"
	"github.com/code-payments/code-vault/pkg/solana"
)

const (
	metricsStructName = "bank.Bank"

	transactionEventName          = "BankTransaction"
	transactionDurationMetricName = "Bank/TransactionDuration"
	airdropMetricName             = "Bank/Airdrops"
)

func recordTransactionMetrics(ctx context.Context, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "unknown"

		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			result = string(txErr.ErrorKey())
		}
	}

	metrics.RecordDuration(ctx, transactionDurationMetricName, duration)
	metrics.RecordEvent(ctx, transactionEventName, map[string]interface{}{
		"result":      result,
		"duration_ms": duration.Milliseconds(),
	})
}
