package bank

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"math"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/metrics"
	"github.com/code-payments/code-vault/pkg/solana"
	vault_sync "github.com/code-payments/code-vault/pkg/sync"
)

// Bank is an in-process ledger that executes Solana transactions against an
// account Store. Each transaction is atomic: either every account change it
// makes is committed, or none are and no fee is charged.
type Bank struct {
	log   *logrus.Entry
	conf  *conf
	store Store
	locks *vault_sync.StripedLock

	programsMu sync.RWMutex
	programs   map[string]Program

	mu          sync.RWMutex
	blockhashes *blockhashQueue
	statuses    *statusCache
}

// Option configures a Bank
type Option func(b *Bank)

// WithConfig sets the config provider used by the Bank
func WithConfig(configProvider ConfigProvider) Option {
	return func(b *Bank) {
		b.conf = configProvider()
	}
}

// WithProgram registers a native program with the Bank
func WithProgram(program Program) Option {
	return func(b *Bank) {
		b.programs[string(program.ID())] = program
	}
}

// New returns a Bank backed by store. The system program is always
// registered.
func New(store Store, opts ...Option) *Bank {
	b := &Bank{
		log:      logrus.StandardLogger().WithField("type", "bank"),
		conf:     WithEnvConfigs()(),
		store:    store,
		programs: make(map[string]Program),
		statuses: newStatusCache(),
	}

	for _, opt := range opts {
		opt(b)
	}

	system := &systemProgram{}
	b.programs[string(system.ID())] = system

	b.locks = vault_sync.NewStripedLock(uint(b.conf.lockStripes.Get(context.Background())))

	var genesis solana.Blockhash
	if _, err := rand.Read(genesis[:]); err != nil {
		panic(err)
	}
	b.blockhashes = newBlockhashQueue(genesis)

	return b
}

// RegisterProgram adds a native program after construction
func (b *Bank) RegisterProgram(program Program) error {
	b.programsMu.Lock()
	defer b.programsMu.Unlock()

	if _, ok := b.programs[string(program.ID())]; ok {
		return ErrProgramRegistered
	}

	b.programs[string(program.ID())] = program
	return nil
}

func (b *Bank) getProgram(id ed25519.PublicKey) (Program, bool) {
	b.programsMu.RLock()
	defer b.programsMu.RUnlock()

	program, ok := b.programs[string(id)]
	return program, ok
}

func (b *Bank) rent(ctx context.Context) Rent {
	return Rent{
		LamportsPerByteYear: b.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  b.conf.rentExemptionThreshold.Get(ctx),
	}
}

// GetLatestBlockhash returns the blockhash new transactions should reference
func (b *Bank) GetLatestBlockhash(_ context.Context) (solana.Blockhash, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.blockhashes.latest, nil
}

// GetSlot returns the current slot
func (b *Bank) GetSlot(_ context.Context) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.blockhashes.slot, nil
}

// GetSignatureStatus returns the outcome of a processed transaction.
// ErrSignatureNotFound is returned for unknown or expired signatures.
func (b *Bank) GetSignatureStatus(_ context.Context, sig solana.Signature) (*SignatureStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status, ok := b.statuses.get(sig)
	if !ok {
		return nil, ErrSignatureNotFound
	}
	return status.Clone(), nil
}

// GetAccountInfo returns the account at address. ErrAccountNotFound is
// returned if it doesn't exist.
func (b *Bank) GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	if program, ok := b.getProgram(address); ok {
		return programAccount(program).ToAccountInfo(), nil
	}

	account, err := b.store.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	return account.ToAccountInfo(), nil
}

// GetBalance returns the lamports held at address, which is zero for
// accounts that don't exist.
func (b *Bank) GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	info, err := b.GetAccountInfo(ctx, address)
	if err == ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return info.Lamports, nil
}

// GetMinimumBalanceForRentExemption returns the lamports an account holding
// dataLen bytes must keep.
func (b *Bank) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	return b.rent(ctx).MinimumBalance(dataLen), nil
}

// GetFeeForMessage returns the fee charged for a transaction carrying m
func (b *Bank) GetFeeForMessage(ctx context.Context, m solana.Message) (uint64, error) {
	return uint64(m.Header.NumSignatures) * b.conf.lamportsPerSignature.Get(ctx), nil
}

// RequestAirdrop credits lamports to address out of thin air. It exists to
// fund accounts on local and test ledgers.
func (b *Bank) RequestAirdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	var sig solana.Signature

	log := b.log.WithFields(logrus.Fields{
		"method":   "RequestAirdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	if len(address) != ed25519.PublicKeySize {
		return sig, errors.New("invalid address")
	}
	if lamports == 0 {
		return sig, errors.New("lamports must be positive")
	}

	maxAirdrop := b.conf.maxAirdropLamports.Get(ctx)
	if maxAirdrop > 0 && lamports > maxAirdrop {
		return sig, ErrAirdropTooLarge
	}

	if _, err := rand.Read(sig[:]); err != nil {
		return sig, errors.Wrap(err, "failed to generate signature")
	}

	lockSet := b.locks.LockKeys([][]byte{address}, nil)
	defer lockSet.Unlock()

	account, err := b.store.Get(ctx, address)
	if err == ErrAccountNotFound {
		account = newEmptyAccount(address)
	} else if err != nil {
		log.WithError(err).Warn("failure getting account")
		return sig, err
	}

	if account.Lamports > math.MaxUint64-lamports {
		return sig, errors.New("airdrop overflows account balance")
	}
	account.Lamports += lamports

	if err := b.store.Commit(ctx, []*Account{account}); err != nil {
		log.WithError(err).Warn("failure committing airdrop")
		return sig, err
	}

	b.mu.RLock()
	latest := b.blockhashes.latest
	b.mu.RUnlock()
	b.finalize(sig, latest, &SignatureStatus{})

	log.Debug("airdrop committed")
	metrics.RecordCount(ctx, airdropMetricName, 1)
	return sig, nil
}

// ExecuteTransaction verifies, executes and commits tx. Failures are
// returned as a *solana.TransactionError; when instruction processing fails
// it carries the index of the failed instruction and the program's error.
func (b *Bank) ExecuteTransaction(ctx context.Context, tx solana.Transaction) (solana.Signature, error) {
	start := time.Now()

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExecuteTransaction")
	defer tracer.End()

	sig, err := b.executeTransaction(ctx, &tx)
	if err != nil {
		tracer.OnError(err)
	}

	recordTransactionMetrics(ctx, err, time.Since(start))
	return sig, err
}

func (b *Bank) executeTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature

	if err := tx.Sanitize(); err != nil {
		return sig, newTransactionError(ErrSanitizeFailure, err.Error())
	}

	sig = tx.Signatures[0]
	log := b.log.WithFields(logrus.Fields{
		"method":    "ExecuteTransaction",
		"signature": sig.String(),
	})

	b.mu.RLock()
	validBlockhash := b.blockhashes.isValid(tx.Message.RecentBlockhash)
	_, processed := b.statuses.get(sig)
	b.mu.RUnlock()

	if !validBlockhash {
		return sig, newTransactionError(ErrBlockhashNotFound, "")
	}
	if processed {
		return sig, newTransactionError(ErrAlreadyProcessed, "")
	}

	if failed := tx.VerifySignatures(); failed >= 0 {
		log.WithField("index", failed).Debug("signature failed verification")
		return sig, newTransactionError(ErrSignatureFailure, "")
	}
	for i := 0; i < int(tx.Message.Header.NumSignatures); i++ {
		if !solana.IsOnCurve(tx.Message.Accounts[i]) {
			return sig, newTransactionError(ErrSignatureFailure, "signer is off curve")
		}
	}

	var writable, readonly [][]byte
	for i, account := range tx.Message.Accounts {
		if tx.Message.IsWritable(i) {
			writable = append(writable, account)
		} else {
			readonly = append(readonly, account)
		}
	}

	var lockSet *vault_sync.LockSet
	if b.conf.waitForAccountLocks.Get(ctx) {
		lockSet = b.locks.LockKeys(writable, readonly)
	} else {
		var ok bool
		lockSet, ok = b.locks.TryLockKeys(writable, readonly)
		if !ok {
			return sig, newTransactionError(ErrAccountInUse, "")
		}
	}
	defer lockSet.Unlock()

	// A concurrent copy of the same transaction shares the fee payer lock, so
	// the duplicate check is repeated under the locks.
	b.mu.RLock()
	_, processed = b.statuses.get(sig)
	b.mu.RUnlock()
	if processed {
		return sig, newTransactionError(ErrAlreadyProcessed, "")
	}

	loaded, working, err := b.loadAccounts(ctx, tx)
	if err != nil {
		log.WithError(err).Warn("failure loading accounts")
		return sig, err
	}

	fee, _ := b.GetFeeForMessage(ctx, tx.Message)
	payer := working[0]
	if loaded[0] == nil {
		return sig, newTransactionError(ErrAccountNotFoundForFee, "")
	}
	if !payer.IsOwnedBy(SystemProgramID) || len(payer.Data) > 0 {
		return sig, newTransactionError(ErrInvalidAccountForFee, "")
	}
	if payer.Lamports < fee {
		return sig, newTransactionError(ErrInsufficientFundsForFee, "")
	}
	payer.Lamports -= fee

	rent := b.rent(ctx)
	ictx := &InvokeContext{
		ctx:   ctx,
		bank:  b,
		rent:  rent,
		depth: b.conf.maxInvokeDepth.Get(ctx),
		log:   log,
	}

	for i, instruction := range tx.Message.Instructions {
		if err := b.executeInstruction(ictx, tx, working, instruction); err != nil {
			log.WithError(err).WithField("instruction", i).Debug("instruction failed")

			txErr := newInstructionError(i, err)
			b.finalize(sig, tx.Message.RecentBlockhash, &SignatureStatus{Err: txErr, Logs: ictx.logs})
			return sig, txErr
		}
	}

	var changes []*Account
	var preTotal, postTotal uint64
	for i, account := range working {
		pre := loaded[i]
		if pre == nil {
			pre = newEmptyAccount(account.Address)
		}

		preTotal += pre.Lamports
		postTotal += account.Lamports

		if account.Executable || !tx.Message.IsWritable(i) {
			continue
		}

		if account.Lamports > 0 && !rent.IsExempt(account.Lamports, uint64(len(account.Data))) {
			txErr := newTransactionError(ErrInsufficientFundsForRent, base58.Encode(account.Address))
			b.finalize(sig, tx.Message.RecentBlockhash, &SignatureStatus{Err: txErr, Logs: ictx.logs})
			return sig, txErr
		}

		if loaded[i] == nil && account.Lamports == 0 {
			continue
		}
		if loaded[i] != nil && loaded[i].Equals(account) {
			continue
		}
		changes = append(changes, account)
	}

	if preTotal != postTotal+fee {
		log.WithFields(logrus.Fields{
			"pre":  preTotal,
			"post": postTotal,
			"fee":  fee,
		}).Error("lamports not conserved")
		return sig, newTransactionError(solana.TransactionErrorInternal, "lamports not conserved")
	}

	if err := b.store.Commit(ctx, changes); err != nil {
		log.WithError(err).Warn("failure committing transaction")
		return sig, errors.Wrap(err, "error committing transaction")
	}

	b.finalize(sig, tx.Message.RecentBlockhash, &SignatureStatus{Logs: ictx.logs})

	log.WithField("changes", len(changes)).Debug("transaction committed")
	return sig, nil
}

// loadAccounts returns the stored accounts referenced by tx, index aligned
// with its account list, alongside the working copies instructions mutate.
func (b *Bank) loadAccounts(ctx context.Context, tx *solana.Transaction) ([]*Account, []*Account, error) {
	loaded := make([]*Account, len(tx.Message.Accounts))
	working := make([]*Account, len(tx.Message.Accounts))

	stored, err := b.store.GetMany(ctx, tx.Message.Accounts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error loading accounts")
	}

	for i, address := range tx.Message.Accounts {
		if program, ok := b.getProgram(address); ok {
			loaded[i] = programAccount(program)
			working[i] = loaded[i].Clone()
			continue
		}

		loaded[i] = stored[i]
		if stored[i] == nil {
			working[i] = newEmptyAccount(address)
		} else {
			working[i] = stored[i].Clone()
		}
	}

	return loaded, working, nil
}

func (b *Bank) executeInstruction(ictx *InvokeContext, tx *solana.Transaction, working []*Account, instruction solana.CompiledInstruction) error {
	programAccount := working[instruction.ProgramIndex]
	program, ok := b.getProgram(programAccount.Address)
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	accounts := make([]*InstructionAccount, len(instruction.Accounts))
	for i, index := range instruction.Accounts {
		accounts[i] = &InstructionAccount{
			Account:    working[index],
			IsSigner:   tx.Message.IsSigner(int(index)),
			IsWritable: tx.Message.IsWritable(int(index)) && !working[index].Executable,
		}
	}

	return ictx.process(program, accounts, instruction.Data)
}

// finalize records the status of a processed transaction and closes the
// slot. The status is kept for as long as the blockhash the transaction
// referenced remains valid.
func (b *Bank) finalize(sig solana.Signature, blockhash solana.Blockhash, status *SignatureStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()

	status.Slot = b.blockhashes.slot
	if b.blockhashes.isValid(blockhash) {
		b.statuses.insert(sig, blockhash, status)
	}

	maxAge := b.conf.maxRecentBlockhashes.Get(context.Background())
	for _, expired := range b.blockhashes.advance(sig[:], maxAge) {
		b.statuses.purge(expired)
	}
}

func programAccount(program Program) *Account {
	return &Account{
		Address:    program.ID(),
		Lamports:   1,
		Owner:      NativeLoaderID,
		Executable: true,
	}
}
