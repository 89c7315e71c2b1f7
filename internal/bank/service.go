package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank_core/internal/config"
	"bank_core/internal/domain"
	"bank_core/internal/repository"
	"bank_core/pkg/crypto"
	"bank_core/pkg/metrics"
	"bank_core/pkg/validator"
)

var (
	// ErrAuthentication deliberately merges "unknown tax id" and
	// "wrong credential" so callers cannot probe for registered ids.
	ErrAuthentication = errors.New("invalid tax id or credential")

	ErrUnknownKind = errors.New("unknown account kind")
	ErrNotOwner    = errors.New("account does not belong to customer")
)

// AccountSummary is a point-in-time snapshot taken under the account
// lock, safe to hand to callers without further synchronization.
type AccountSummary struct {
	ID      int64           `json:"id"`
	Kind    domain.Kind     `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
}

// Service orchestrates the customer directory, the account registry
// and the per-account locking protocol. It is the only API surface the
// front end talks to.
type Service struct {
	accounts  repository.AccountRegistry
	customers repository.CustomerDirectory
	hasher    *crypto.PasswordHasher
	validator *validator.RequestValidator
	metrics   *metrics.MetricsCollector
	logger    *slog.Logger

	lockTimeout   time.Duration
	defaultParams func(domain.Kind) domain.KindParams
}

func NewService(
	accounts repository.AccountRegistry,
	customers repository.CustomerDirectory,
	hasher *crypto.PasswordHasher,
	metricsCollector *metrics.MetricsCollector,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	return &Service{
		accounts:      accounts,
		customers:     customers,
		hasher:        hasher,
		validator:     validator.NewRequestValidator(),
		metrics:       metricsCollector,
		logger:        logger,
		lockTimeout:   cfg.LockTimeout(),
		defaultParams: cfg.DefaultKindParams,
	}
}

func (s *Service) RegisterCustomer(ctx context.Context, name, taxID, credential string) (*domain.Customer, error) {
	start := time.Now()

	if err := s.validator.ValidateRegistration(name, taxID, credential); err != nil {
		s.record("register", start, false)
		return nil, err
	}

	hash, err := s.hasher.Hash(credential)
	if err != nil {
		s.record("register", start, false)
		return nil, err
	}

	customer := domain.NewCustomer(name, taxID, hash)
	if err := s.customers.Register(ctx, customer); err != nil {
		s.record("register", start, false)
		return nil, fmt.Errorf("registering customer: %w", err)
	}

	s.record("register", start, true)
	s.logger.InfoContext(ctx, "Customer registered",
		slog.String("tax_id", taxID),
		slog.String("name", name))
	return customer, nil
}

func (s *Service) Authenticate(ctx context.Context, taxID, credential string) (*domain.Customer, error) {
	customer, err := s.customers.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, ErrAuthentication
	}
	if !s.hasher.Verify(customer.CredentialHash, credential) {
		s.logger.WarnContext(ctx, "Authentication failed",
			slog.String("tax_id", taxID))
		return nil, ErrAuthentication
	}
	return customer, nil
}

func (s *Service) OpenAccount(ctx context.Context, taxID string, kind domain.Kind) (*domain.Account, error) {
	start := time.Now()

	if kind != domain.KindChecking && kind != domain.KindSavings {
		s.record("open_account", start, false)
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	customer, err := s.customers.GetByTaxID(ctx, taxID)
	if err != nil {
		s.record("open_account", start, false)
		return nil, fmt.Errorf("looking up owner: %w", err)
	}

	account, err := s.accounts.Open(ctx, customer.TaxID, kind, s.defaultParams(kind))
	if err != nil {
		s.record("open_account", start, false)
		return nil, fmt.Errorf("opening account: %w", err)
	}
	if err := s.customers.LinkAccount(ctx, customer.TaxID, account.ID); err != nil {
		s.record("open_account", start, false)
		return nil, fmt.Errorf("linking account to owner: %w", err)
	}

	s.updateBalanceGauge(account.ID, account.Kind, decimal.Zero)
	s.record("open_account", start, true)
	s.logger.InfoContext(ctx, "Account opened",
		slog.Int64("account_id", account.ID),
		slog.String("kind", string(kind)),
		slog.String("owner", taxID))
	return account, nil
}

func (s *Service) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	start := time.Now()

	if err := s.validator.ValidateAmount(amount); err != nil {
		s.record("deposit", start, false)
		return decimal.Zero, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.record("deposit", start, false)
		return decimal.Zero, err
	}

	if err := s.lockAccount(account); err != nil {
		s.record("deposit", start, false)
		return decimal.Zero, err
	}
	err = account.Deposit(amount)
	balance := account.Balance
	account.Release()

	if err != nil {
		s.record("deposit", start, false)
		return decimal.Zero, err
	}

	s.updateBalanceGauge(account.ID, account.Kind, balance)
	s.record("deposit", start, true)
	s.logger.InfoContext(ctx, "Deposit completed",
		slog.Int64("account_id", accountID),
		slog.String("amount", amount.String()))
	return balance, nil
}

func (s *Service) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	start := time.Now()

	if err := s.validator.ValidateAmount(amount); err != nil {
		s.record("withdraw", start, false)
		return decimal.Zero, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.record("withdraw", start, false)
		return decimal.Zero, err
	}

	if err := s.lockAccount(account); err != nil {
		s.record("withdraw", start, false)
		return decimal.Zero, err
	}
	err = account.Withdraw(amount)
	balance := account.Balance
	account.Release()

	if err != nil {
		s.record("withdraw", start, false)
		return decimal.Zero, err
	}

	s.updateBalanceGauge(account.ID, account.Kind, balance)
	s.record("withdraw", start, true)
	s.logger.InfoContext(ctx, "Withdrawal completed",
		slog.Int64("account_id", accountID),
		slog.String("amount", amount.String()))
	return balance, nil
}

// Transfer debits source and credits destination atomically: either
// both balances change or neither does. Both account locks are taken
// in ascending-ID order so concurrent reverse-direction transfers
// cannot deadlock.
func (s *Service) Transfer(ctx context.Context, sourceID, destID int64, amount decimal.Decimal) error {
	start := time.Now()

	if err := s.validator.ValidateAmount(amount); err != nil {
		s.record("transfer", start, false)
		return err
	}
	if sourceID == destID {
		s.record("transfer", start, false)
		return domain.ErrSameAccount
	}

	source, err := s.accounts.GetByID(ctx, sourceID)
	if err != nil {
		s.record("transfer", start, false)
		return fmt.Errorf("source: %w", err)
	}
	dest, err := s.accounts.GetByID(ctx, destID)
	if err != nil {
		s.record("transfer", start, false)
		return fmt.Errorf("destination: %w", err)
	}

	first, second := source, dest
	if second.ID < first.ID {
		first, second = second, first
	}

	if err := s.lockAccount(first); err != nil {
		s.record("transfer", start, false)
		return err
	}
	if err := s.lockAccount(second); err != nil {
		first.Release()
		s.record("transfer", start, false)
		return err
	}

	err = source.TransferTo(dest, amount)
	sourceBalance, destBalance := source.Balance, dest.Balance

	second.Release()
	first.Release()

	if err != nil {
		s.record("transfer", start, false)
		return err
	}

	s.updateBalanceGauge(source.ID, source.Kind, sourceBalance)
	s.updateBalanceGauge(dest.ID, dest.Kind, destBalance)
	s.record("transfer", start, true)
	s.logger.InfoContext(ctx, "Transfer completed",
		slog.Int64("source_id", sourceID),
		slog.Int64("dest_id", destID),
		slog.String("amount", amount.String()))
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, accountID int64) ([]domain.Entry, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.lockAccount(account); err != nil {
		return nil, err
	}
	defer account.Release()
	return account.History(), nil
}

func (s *Service) ListAccounts(ctx context.Context, taxID string) ([]AccountSummary, error) {
	if _, err := s.customers.GetByTaxID(ctx, taxID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.GetByOwner(ctx, taxID)
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		if err := s.lockAccount(account); err != nil {
			return nil, err
		}
		summaries = append(summaries, AccountSummary{
			ID:      account.ID,
			Kind:    account.Kind,
			Balance: account.Balance,
		})
		account.Release()
	}
	return summaries, nil
}

// CheckOwnership reports whether accountID belongs to the customer
// identified by taxID.
func (s *Service) CheckOwnership(ctx context.Context, taxID string, accountID int64) error {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return err
	}
	owns, err := s.customers.Owns(ctx, taxID, accountID)
	if err != nil {
		return err
	}
	if !owns {
		return fmt.Errorf("%w: account %d, customer %s", ErrNotOwner, accountID, taxID)
	}
	return nil
}

// ApplyInterestToAll sweeps every account exactly once, accruing one
// period of interest where the kind earns any. Accounts whose lock
// cannot be taken within the bound are skipped and reported; the sweep
// still visits the rest.
func (s *Service) ApplyInterestToAll(ctx context.Context) (int, error) {
	start := time.Now()

	accounts, err := s.accounts.All(ctx)
	if err != nil {
		s.record("interest_sweep", start, false)
		return 0, err
	}

	processed := 0
	var errs []error
	for _, account := range accounts {
		if err := s.lockAccount(account); err != nil {
			errs = append(errs, err)
			continue
		}
		account.ApplyInterest()
		balance := account.Balance
		account.Release()

		s.updateBalanceGauge(account.ID, account.Kind, balance)
		processed++
	}

	s.metrics.RecordInterestRun(processed)
	s.record("interest_sweep", start, len(errs) == 0)
	s.logger.InfoContext(ctx, "Interest sweep completed",
		slog.Int("accounts_processed", processed),
		slog.Int("accounts_skipped", len(errs)))
	return processed, errors.Join(errs...)
}

func (s *Service) lockAccount(account *domain.Account) error {
	if err := account.Acquire(s.lockTimeout); err != nil {
		s.metrics.RecordLockTimeout()
		return fmt.Errorf("account %d: %w", account.ID, err)
	}
	return nil
}

func (s *Service) updateBalanceGauge(id int64, kind domain.Kind, balance decimal.Decimal) {
	f, _ := balance.Float64()
	s.metrics.UpdateAccountBalance(fmt.Sprintf("%d", id), string(kind), f)
}

func (s *Service) record(operation string, start time.Time, success bool) {
	s.metrics.RecordOperation(operation, time.Since(start), success)
}
