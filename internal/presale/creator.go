package presale

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
	"core-launchpad/internal/observability"
	"core-launchpad/internal/storage"
)

var (
	// ErrInvalidParams wraps every CreateParams validation failure.
	ErrInvalidParams = errors.New("invalid presale parameters")

	// ErrPoolAddressNotFound is returned when a mined createPresale receipt
	// carries no recognizable pool address.
	ErrPoolAddressNotFound = errors.New("pool address not found in receipt")
)

// CreateParams describes a new presale and its display metadata.
type CreateParams struct {
	TokenName   string
	TokenSymbol string
	PresaleRate *big.Int // tokens per native unit
	Softcap     *big.Int // wei
	Hardcap     *big.Int // wei
	StartTime   time.Time
	EndTime     time.Time

	ImageURL    string
	Description string
	Website     string
	Telegram    string
	Twitter     string
}

// Created is the outcome of a successful Create.
type Created struct {
	PoolAddress common.Address
	TxHash      common.Hash
	Metadata    *domain.TokenMetadata // nil when the metadata write failed
}

// Creator deploys presales through the pool manager and records their metadata.
type Creator struct {
	reader     *Reader
	transactor *chain.Transactor
	metadata   storage.TokenMetadataStore
	wait       chain.WaitOptions
	logger     *zap.Logger
}

// NewCreator creates a Creator. metadata may be nil.
func NewCreator(reader *Reader, t *chain.Transactor, metadata storage.TokenMetadataStore, wait chain.WaitOptions, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{
		reader:     reader,
		transactor: t,
		metadata:   metadata,
		wait:       wait,
		logger:     logger.Named("creator"),
	}
}

// Validate checks params against the current time.
func (p CreateParams) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(p.TokenName) == "":
		return fmt.Errorf("%w: token name is required", ErrInvalidParams)
	case strings.TrimSpace(p.TokenSymbol) == "":
		return fmt.Errorf("%w: token symbol is required", ErrInvalidParams)
	case p.PresaleRate == nil || p.PresaleRate.Sign() <= 0:
		return fmt.Errorf("%w: presale rate must be positive", ErrInvalidParams)
	case p.Softcap == nil || p.Softcap.Sign() <= 0:
		return fmt.Errorf("%w: softcap must be positive", ErrInvalidParams)
	case p.Hardcap == nil || p.Hardcap.Cmp(p.Softcap) < 0:
		return fmt.Errorf("%w: hardcap must not be below softcap", ErrInvalidParams)
	case p.StartTime.Unix() <= now.Unix():
		return fmt.Errorf("%w: start time must be in the future", ErrInvalidParams)
	case !p.EndTime.After(p.StartTime):
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidParams)
	}
	return nil
}

// Tuple builds the createPresale argument. The token is created by the
// manager, liquidity rate is unused and refunds are always enabled.
func (p CreateParams) Tuple() contracts.PresaleTuple {
	return contracts.PresaleTuple{
		Token:         common.Address{},
		PresaleRate:   new(big.Int).Set(p.PresaleRate),
		Softcap:       new(big.Int).Set(p.Softcap),
		Hardcap:       new(big.Int).Set(p.Hardcap),
		LiquidityRate: new(big.Int),
		ListingRate:   domain.ListingRate(p.PresaleRate),
		StartTime:     big.NewInt(p.StartTime.Unix()),
		EndTime:       big.NewInt(p.EndTime.Unix()),
		Refund:        true,
		TokenName:     strings.TrimSpace(p.TokenName),
		TokenSymbol:   strings.TrimSpace(p.TokenSymbol),
	}
}

// Create sends createPresale, waits for the receipt, extracts the new pool
// address and upserts its metadata. A metadata failure is logged and leaves
// Created.Metadata nil; the presale itself already exists on chain.
func (c *Creator) Create(ctx context.Context, params CreateParams) (*Created, error) {
	if c.transactor == nil {
		return nil, ErrNoTransactor
	}
	if err := params.Validate(c.reader.Now()); err != nil {
		return nil, err
	}

	manager := c.reader.Manager()
	tx, err := manager.CreatePresale(ctx, c.transactor, params.Tuple())
	if err != nil {
		return nil, err
	}
	c.logger.Info("createPresale sent", zap.String("tx", tx.Hash().Hex()), zap.String("symbol", params.TokenSymbol))

	receipt, err := chain.WaitMined(ctx, c.reader.Backend(), tx.Hash(), c.wait)
	if err != nil {
		return nil, fmt.Errorf("createPresale: %w", err)
	}
	pool, ok := manager.PoolAddressFromReceipt(receipt)
	if !ok {
		return nil, fmt.Errorf("%w: tx %s", ErrPoolAddressNotFound, tx.Hash().Hex())
	}

	created := &Created{PoolAddress: pool, TxHash: tx.Hash()}
	if c.metadata == nil {
		return created, nil
	}

	m, err := c.metadata.Upsert(ctx, &domain.TokenMetadata{
		PoolAddress: pool.Hex(),
		Name:        strings.TrimSpace(params.TokenName),
		Symbol:      strings.TrimSpace(params.TokenSymbol),
		ImageURL:    domain.OptionalString(params.ImageURL),
		Description: domain.OptionalString(params.Description),
		Website:     domain.OptionalString(params.Website),
		Telegram:    domain.OptionalString(params.Telegram),
		Twitter:     domain.OptionalString(params.Twitter),
	})
	observability.RecordMetadataUpsert(err)
	if err != nil {
		c.logger.Error("save metadata", zap.String("pool", pool.Hex()), zap.Error(err))
		return created, nil
	}
	created.Metadata = m
	return created, nil
}
