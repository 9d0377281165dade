package vault

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/bank"
	"github.com/code-payments/code-vault/pkg/metrics"
	"github.com/code-payments/code-vault/pkg/retry"
	"github.com/code-payments/code-vault/pkg/retry/backoff"
	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

const (
	metricsStructName = "vault.Client"

	submitDurationMetricName = "VaultClient/SubmitDuration"
	submitRetriesMetricName  = "VaultClient/SubmitRetries"
)

// Ledger is the subset of ledger operations the client depends on. It is
// satisfied by *bank.Bank.
type Ledger interface {
	GetLatestBlockhash(ctx context.Context) (solana.Blockhash, error)
	ExecuteTransaction(ctx context.Context, tx solana.Transaction) (solana.Signature, error)
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error)
	GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error)
}

// Client builds, signs and submits vault program transactions on behalf of
// owners.
type Client struct {
	log    *logrus.Entry
	conf   *conf
	ledger Ledger
}

func NewClient(ledger Ledger, configProvider ConfigProvider) *Client {
	return &Client{
		log:    logrus.StandardLogger().WithField("type", "vault/client"),
		conf:   configProvider(),
		ledger: ledger,
	}
}

// GetAddresses derives the state and vault addresses for owner
func (c *Client) GetAddresses(owner ed25519.PublicKey) (*vault_program.Addresses, error) {
	return vault_program.GetAddresses(owner)
}

// Initialize creates the owner's vault. The owner pays for the transaction
// and funds the state account's rent reservation.
func (c *Client) Initialize(ctx context.Context, owner ed25519.PrivateKey) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Initialize")
	defer tracer.End()

	addresses, err := c.GetAddresses(owner.Public().(ed25519.PublicKey))
	if err != nil {
		tracer.OnError(err)
		return solana.Signature{}, errors.Wrap(err, "error deriving addresses")
	}

	ix := vault_program.NewInitializeInstruction(
		&vault_program.InitializeInstructionAccounts{
			Signer:     addresses.Owner,
			Vault:      addresses.Vault,
			VaultState: addresses.State,
		},
		&vault_program.InitializeInstructionArgs{},
	)

	sig, err := c.submit(ctx, "Initialize", owner, ix.ToLegacyInstruction())
	tracer.OnError(err)
	return sig, err
}

// InitializeIfNeeded is Initialize, except an already initialized vault is
// not an error. The returned signature is empty in that case.
func (c *Client) InitializeIfNeeded(ctx context.Context, owner ed25519.PrivateKey) (solana.Signature, error) {
	sig, err := c.Initialize(ctx, owner)
	if IsAlreadyInitialized(err) {
		return solana.Signature{}, nil
	}
	return sig, err
}

// Deposit moves amount lamports from the owner's account into their vault
func (c *Client) Deposit(ctx context.Context, owner ed25519.PrivateKey, amount uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Deposit")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	addresses, err := c.GetAddresses(owner.Public().(ed25519.PublicKey))
	if err != nil {
		tracer.OnError(err)
		return solana.Signature{}, errors.Wrap(err, "error deriving addresses")
	}

	ix := vault_program.NewDepositInstruction(
		&vault_program.DepositInstructionAccounts{
			Signer:     addresses.Owner,
			Vault:      addresses.Vault,
			VaultState: addresses.State,
		},
		&vault_program.DepositInstructionArgs{
			Amount: amount,
		},
	)

	sig, err := c.submit(ctx, "Deposit", owner, ix.ToLegacyInstruction())
	tracer.OnError(err)
	return sig, err
}

// Withdraw moves amount lamports from the owner's vault back to their account
func (c *Client) Withdraw(ctx context.Context, owner ed25519.PrivateKey, amount uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Withdraw")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	addresses, err := c.GetAddresses(owner.Public().(ed25519.PublicKey))
	if err != nil {
		tracer.OnError(err)
		return solana.Signature{}, errors.Wrap(err, "error deriving addresses")
	}

	ix := vault_program.NewWithdrawInstruction(
		&vault_program.WithdrawInstructionAccounts{
			Signer:     addresses.Owner,
			Vault:      addresses.Vault,
			VaultState: addresses.State,
		},
		&vault_program.WithdrawInstructionArgs{
			Amount: amount,
		},
	)

	sig, err := c.submit(ctx, "Withdraw", owner, ix.ToLegacyInstruction())
	tracer.OnError(err)
	return sig, err
}

// Close returns the vault balance and the state reservation to the owner and
// removes both accounts.
func (c *Client) Close(ctx context.Context, owner ed25519.PrivateKey) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Close")
	defer tracer.End()

	addresses, err := c.GetAddresses(owner.Public().(ed25519.PublicKey))
	if err != nil {
		tracer.OnError(err)
		return solana.Signature{}, errors.Wrap(err, "error deriving addresses")
	}

	ix := vault_program.NewCloseInstruction(
		&vault_program.CloseInstructionAccounts{
			Signer:     addresses.Owner,
			Vault:      addresses.Vault,
			VaultState: addresses.State,
		},
		&vault_program.CloseInstructionArgs{},
	)

	sig, err := c.submit(ctx, "Close", owner, ix.ToLegacyInstruction())
	tracer.OnError(err)
	return sig, err
}

// GetState returns the owner's VaultState. ErrVaultNotFound is returned if
// the vault was never initialized or has been closed.
func (c *Client) GetState(ctx context.Context, owner ed25519.PublicKey) (*vault_program.VaultStateAccount, error) {
	addresses, err := c.GetAddresses(owner)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving addresses")
	}

	info, err := c.ledger.GetAccountInfo(ctx, addresses.State)
	if err == bank.ErrAccountNotFound {
		return nil, ErrVaultNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting state account")
	}

	if !bytes.Equal(info.Owner, vault_program.PROGRAM_ID) {
		return nil, ErrVaultNotFound
	}

	var state vault_program.VaultStateAccount
	if err := state.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling state account")
	}
	return &state, nil
}

// GetVaultBalance returns the lamports held in the owner's vault
func (c *Client) GetVaultBalance(ctx context.Context, owner ed25519.PublicKey) (uint64, error) {
	addresses, err := c.GetAddresses(owner)
	if err != nil {
		return 0, errors.Wrap(err, "error deriving addresses")
	}

	balance, err := c.ledger.GetBalance(ctx, addresses.Vault)
	if err != nil {
		return 0, errors.Wrap(err, "error getting vault balance")
	}
	return balance, nil
}

// submit signs and executes a single instruction transaction paid for by
// owner. Expired blockhashes and account lock contention are retried with a
// fresh blockhash.
func (c *Client) submit(ctx context.Context, method string, owner ed25519.PrivateKey, ix solana.Instruction) (solana.Signature, error) {
	log := c.log.WithFields(logrus.Fields{
		"method": method,
		"owner":  base58.Encode(owner.Public().(ed25519.PublicKey)),
	})

	start := time.Now()

	var sig solana.Signature
	attempts, err := retry.Retry(
		ctx,
		func() error {
			blockhash, err := c.ledger.GetLatestBlockhash(ctx)
			if err != nil {
				return errors.Wrap(err, "error getting latest blockhash")
			}

			tx := solana.NewTransaction(owner.Public().(ed25519.PublicKey), ix)
			tx.SetBlockhash(blockhash)
			if err := tx.Sign(owner); err != nil {
				return errors.Wrap(err, "error signing transaction")
			}

			sig, err = c.ledger.ExecuteTransaction(ctx, tx)
			if err != nil {
				log.WithError(err).WithField("signature", sig.String()).Debug("transaction attempt failed")
			}
			return err
		},
		retry.RetriableErrors(bank.ErrBlockhashNotFound, bank.ErrAccountInUse),
		retry.Limit(uint(c.conf.maxRetries.Get(ctx))+1),
		retry.Backoff(backoff.BinaryExponential(c.conf.minRetryDelay.Get(ctx)), c.conf.maxRetryDelay.Get(ctx)),
	)

	metrics.RecordDuration(ctx, submitDurationMetricName, time.Since(start))
	if attempts > 1 {
		metrics.RecordCount(ctx, submitRetriesMetricName, uint64(attempts-1))
	}

	if err != nil {
		if programErr, ok := vault_program.ErrorFromTransactionError(err); ok {
			log.WithError(programErr).Info("vault program rejected transaction")
		} else {
			log.WithError(err).Warn("failure submitting transaction")
		}
		return sig, err
	}

	log.WithField("signature", sig.String()).Debug("transaction submitted")
	return sig, nil
}
