package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedCoin    = errors.New("unsupported coin")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidConversion  = errors.New("only USDT to coin or coin to USDT conversions are allowed")
	ErrDepositNotFound    = repository.ErrDepositNotFound
	ErrWithdrawalNotFound = repository.ErrWithdrawalNotFound
)

// conversionPlaces is the precision of converted coin quantities
const conversionPlaces = 8

// WalletService handles deposits, withdrawals and conversions
type WalletService struct {
	db      *gorm.DB
	users   *repository.UserRepository
	wallets *repository.WalletRepository
	ledger  *BalanceLedger
	oracle  price.PriceOracle
	logger  *zap.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(
	db *gorm.DB,
	users *repository.UserRepository,
	wallets *repository.WalletRepository,
	ledger *BalanceLedger,
	oracle price.PriceOracle,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		db:      db,
		users:   users,
		wallets: wallets,
		ledger:  ledger,
		oracle:  oracle,
		logger:  logger,
	}
}

// DepositRequest represents a deposit claim
type DepositRequest struct {
	Coin       string          `json:"coin" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Address    string          `json:"address" binding:"required"`
	Screenshot string          `json:"screenshot"`
}

// WithdrawalRequest represents a payout request
type WithdrawalRequest struct {
	Coin    string          `json:"coin" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address" binding:"required"`
	Network string          `json:"network"`
}

// ConvertRequest represents a USDT/coin swap
type ConvertRequest struct {
	FromCoin string          `json:"from_coin" binding:"required"`
	ToCoin   string          `json:"to_coin" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

func validCoinAmount(coin string, amount decimal.Decimal) (string, error) {
	coin = models.NormalizeCoin(coin)
	if !models.IsSupportedCoin(coin) {
		return "", ErrUnsupportedCoin
	}
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	return coin, nil
}

// RequestDeposit records a pending deposit
func (s *WalletService) RequestDeposit(userID uint, req *DepositRequest) (*models.Deposit, error) {
	coin, err := validCoinAmount(req.Coin, req.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(userID); err != nil {
		return nil, err
	}

	d := &models.Deposit{
		UserID:     userID,
		Coin:       coin,
		Amount:     req.Amount,
		Address:    strings.TrimSpace(req.Address),
		Screenshot: req.Screenshot,
		Status:     models.RequestPending,
	}
	if err := s.wallets.CreateDeposit(d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDepositStatus moves a deposit to status. Entering approved credits the
// balance; leaving approved takes the credit back.
func (s *WalletService) SetDepositStatus(ctx context.Context, id uint, status string) (*models.Deposit, error) {
	to := models.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.wallets.GetDeposit(id)
	if err != nil {
		return nil, err
	}
	// priced before the transaction so no upstream call runs inside it
	priceUSD, _ := s.oracle.PriceOrFallback(ctx, current.Coin)

	var out *models.Deposit
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := s.wallets.WithTx(tx)
		d, err := wallets.GetDeposit(id)
		if err != nil {
			return err
		}
		out = d
		if d.Status == to {
			return nil
		}

		ok, err := wallets.TransitionDeposit(d.ID, d.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("deposit %d changed concurrently", d.ID)
		}

		switch {
		case to == models.RequestApproved:
			err = s.ledger.Credit(tx, d.UserID, d.Coin, d.Amount)
		case d.Status == models.RequestApproved:
			err = s.ledger.Debit(tx, d.UserID, d.Coin, d.Amount)
		default:
			d.Status = to
			return nil
		}
		if err != nil {
			return err
		}
		d.Status = to
		_, err = s.ledger.Snapshot(tx, d.UserID, d.Coin, priceUSD, models.SnapshotDeposit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestWithdrawal records a pending withdrawal if the balance covers it
func (s *WalletService) RequestWithdrawal(userID uint, req *WithdrawalRequest) (*models.Withdrawal, error) {
	coin, err := validCoinAmount(req.Coin, req.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(userID); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(userID, coin)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(req.Amount) {
		return nil, ErrInsufficientBalance
	}

	w := &models.Withdrawal{
		UserID:  userID,
		Coin:    coin,
		Amount:  req.Amount,
		Address: strings.TrimSpace(req.Address),
		Status:  models.RequestPending,
	}
	if n := strings.TrimSpace(req.Network); n != "" {
		w.Network = &n
	}
	if err := s.wallets.CreateWithdrawal(w); err != nil {
		return nil, err
	}
	return w, nil
}

// SetWithdrawalStatus moves a withdrawal to status. Entering approved debits
// the balance; leaving approved refunds it.
func (s *WalletService) SetWithdrawalStatus(ctx context.Context, id uint, status string) (*models.Withdrawal, error) {
	to := models.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.wallets.GetWithdrawal(id)
	if err != nil {
		return nil, err
	}
	// priced before the transaction so no upstream call runs inside it
	priceUSD, _ := s.oracle.PriceOrFallback(ctx, current.Coin)

	var out *models.Withdrawal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := s.wallets.WithTx(tx)
		w, err := wallets.GetWithdrawal(id)
		if err != nil {
			return err
		}
		out = w
		if w.Status == to {
			return nil
		}

		ok, err := wallets.TransitionWithdrawal(w.ID, w.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("withdrawal %d changed concurrently", w.ID)
		}

		switch {
		case to == models.RequestApproved:
			err = s.ledger.Debit(tx, w.UserID, w.Coin, w.Amount)
		case w.Status == models.RequestApproved:
			err = s.ledger.Credit(tx, w.UserID, w.Coin, w.Amount)
		default:
			w.Status = to
			return nil
		}
		if err != nil {
			return err
		}
		w.Status = to
		_, err = s.ledger.Snapshot(tx, w.UserID, w.Coin, priceUSD, models.SnapshotWithdrawal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertResult describes a completed conversion
type ConvertResult struct {
	Received decimal.Decimal `json:"received"`
	Rate     decimal.Decimal `json:"rate"`
}

// Convert swaps between USDT and one other coin at the current price
func (s *WalletService) Convert(ctx context.Context, userID uint, req *ConvertRequest) (*ConvertResult, error) {
	from := models.NormalizeCoin(req.FromCoin)
	to := models.NormalizeCoin(req.ToCoin)
	if !models.IsSupportedCoin(from) || !models.IsSupportedCoin(to) {
		return nil, ErrUnsupportedCoin
	}
	if from == to || (from != models.CoinUSDT && to != models.CoinUSDT) {
		return nil, ErrInvalidConversion
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	coin := to
	if to == models.CoinUSDT {
		coin = from
	}
	rate, _ := s.oracle.PriceOrFallback(ctx, coin)

	var received decimal.Decimal
	if from == models.CoinUSDT {
		received = req.Amount.DivRound(rate, conversionPlaces)
	} else {
		received = req.Amount.Mul(rate).Round(conversionPlaces)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.Debit(tx, userID, from, req.Amount); err != nil {
			return err
		}
		if err := s.ledger.Credit(tx, userID, to, received); err != nil {
			return err
		}
		if err := s.wallets.WithTx(tx).CreateConversion(&models.Conversion{
			UserID:   userID,
			FromCoin: from,
			ToCoin:   to,
			Amount:   req.Amount,
			Received: received,
			Rate:     rate,
		}); err != nil {
			return err
		}
		if _, err := s.ledger.Snapshot(tx, userID, from, s.usdPrice(from, rate), models.SnapshotConversion); err != nil {
			return err
		}
		_, err := s.ledger.Snapshot(tx, userID, to, s.usdPrice(to, rate), models.SnapshotConversion)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Conversion completed",
		zap.Uint("user_id", userID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", req.Amount.String()),
		zap.String("received", received.String()),
	)
	return &ConvertResult{Received: received, Rate: rate}, nil
}

func (s *WalletService) usdPrice(coin string, rate decimal.Decimal) decimal.Decimal {
	if coin == models.CoinUSDT {
		return decimal.NewFromInt(1)
	}
	return rate
}

// Deposits lists the deposits of a user; userID 0 lists all
func (s *WalletService) Deposits(userID uint) ([]models.Deposit, error) {
	return s.wallets.ListDeposits(userID)
}

// Withdrawals lists the withdrawals of a user; userID 0 lists all
func (s *WalletService) Withdrawals(userID uint) ([]models.Withdrawal, error) {
	return s.wallets.ListWithdrawals(userID)
}

// Conversions lists the conversions of a user
func (s *WalletService) Conversions(userID uint) ([]models.Conversion, error) {
	return s.wallets.ListConversions(userID)
}
