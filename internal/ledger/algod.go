package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
)

// flatFee is the minimum transaction fee in microAlgos.
const flatFee = 1000

// AlgodConfig настройки подключения к algod
type AlgodConfig struct {
	Address        string
	Token          string
	AppID          uint64
	SignerMnemonic string
	WaitRounds     uint64
	ReadRetries    uint64
	RetryBase      time.Duration
}

// AlgodClient реализует Client поверх algod и ABI-вызовов контракта
type AlgodClient struct {
	algod       *algod.Client
	appID       uint64
	account     crypto.Account
	waitRounds  uint64
	readRetries uint64
	retryBase   time.Duration
	logger      *zap.Logger
}

// NewAlgodClient создаёт клиента algod с подписантом из мнемоники
func NewAlgodClient(cfg AlgodConfig, logger *zap.Logger) (*AlgodClient, error) {
	if cfg.AppID == 0 {
		return nil, fmt.Errorf("algod: app id is required")
	}

	client, err := algod.MakeClient(cfg.Address, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("algod: make client: %w", err)
	}

	sk, err := mnemonic.ToPrivateKey(cfg.SignerMnemonic)
	if err != nil {
		return nil, fmt.Errorf("algod: signer mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("algod: signer account: %w", err)
	}

	if cfg.WaitRounds == 0 {
		cfg.WaitRounds = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}

	return &AlgodClient{
		algod:       client,
		appID:       cfg.AppID,
		account:     account,
		waitRounds:  cfg.WaitRounds,
		readRetries: cfg.ReadRetries,
		retryBase:   cfg.RetryBase,
		logger:      logger,
	}, nil
}

// Signer возвращает адрес аккаунта, который подписывает транзакции
func (c *AlgodClient) Signer() string {
	return c.account.Address.String()
}

// GetBoxValue читает бокс приложения. Недоступность algod повторяется с backoff.
func (c *AlgodClient) GetBoxValue(ctx context.Context, name []byte) ([]byte, error) {
	var value []byte
	notFound := false

	backoff := retry.WithMaxRetries(c.readRetries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		box, err := c.algod.GetApplicationBoxByName(c.appID, name).Do(ctx)
		if err != nil {
			if isBoxNotFound(err) {
				notFound = true
				return nil
			}
			classified := classifyError(err)
			if apperr.Retryable(classified) {
				c.logger.Warn("Box read failed, retrying",
					zap.ByteString("box", name),
					zap.Error(err),
				)
				return retry.RetryableError(classified)
			}
			return classified
		}
		value = box.Value
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get box %q: %w", string(name), err)
	}
	if notFound {
		return nil, ErrBoxNotFound
	}

	return value, nil
}

// CallMethod подписывает и отправляет вызов метода контракта. Запись не повторяется.
func (c *AlgodClient) CallMethod(ctx context.Context, method string, args []string, box []byte) (CallResult, error) {
	abiMethod, err := abi.MethodFromSignature(method + "(string,string,string)string")
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: method %s: %v", apperr.ErrLedgerRejected, method, err)
	}

	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return CallResult{}, fmt.Errorf("suggested params: %w", classifyError(err))
	}
	sp.FlatFee = true
	sp.Fee = types.MicroAlgos(flatFee)

	methodArgs := make([]interface{}, len(args))
	for i, a := range args {
		methodArgs[i] = a
	}

	var atc transaction.AtomicTransactionComposer
	err = atc.AddMethodCall(transaction.AddMethodCallParams{
		AppID:           c.appID,
		Method:          abiMethod,
		MethodArgs:      methodArgs,
		Sender:          c.account.Address,
		SuggestedParams: sp,
		OnComplete:      types.NoOpOC,
		Signer:          transaction.BasicAccountTransactionSigner{Account: c.account},
		BoxReferences:   []types.AppBoxReference{{AppID: 0, Name: box}},
	})
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: build %s call: %v", apperr.ErrLedgerRejected, method, err)
	}

	res, err := atc.Execute(c.algod, ctx, c.waitRounds)
	if err != nil {
		return CallResult{}, fmt.Errorf("execute %s: %w", method, classifyError(err))
	}

	out := CallResult{ConfirmedRound: res.ConfirmedRound}
	if len(res.TxIDs) > 0 {
		out.TxID = res.TxIDs[0]
	}
	if len(res.MethodResults) > 0 {
		mr := res.MethodResults[0]
		if mr.DecodeError != nil {
			c.logger.Warn("Failed to decode method return value",
				zap.String("method", method),
				zap.String("tx_id", out.TxID),
				zap.Error(mr.DecodeError),
			)
		} else if s, ok := mr.ReturnValue.(string); ok {
			out.ReturnValue = s
		}
	}

	return out, nil
}

// isBoxNotFound распознаёт 404 algod для отсутствующего бокса.
// SDK отдаёт ошибки как "HTTP <status>: <body>", без отдельных типов.
func isBoxNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "box not found")
}

// classifyError сводит ошибки algod к ErrLedgerUnavailable / ErrLedgerRejected
func classifyError(err error) error {
	if errors.Is(err, apperr.ErrLedgerUnavailable) || errors.Is(err, apperr.ErrLedgerRejected) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "HTTP 4"):
		return fmt.Errorf("%w: %v", apperr.ErrLedgerRejected, err)
	case strings.HasPrefix(msg, "HTTP 5"):
		return fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	case strings.Contains(strings.ToLower(msg), "logic eval error"),
		strings.Contains(strings.ToLower(msg), "rejected"):
		return fmt.Errorf("%w: %v", apperr.ErrLedgerRejected, err)
	default:
		return fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}
}
