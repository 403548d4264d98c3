package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ismaiel54/trade-ticket/internal/config"
	"github.com/ismaiel54/trade-ticket/internal/journal"
	"github.com/ismaiel54/trade-ticket/internal/logging"
	"github.com/ismaiel54/trade-ticket/internal/msg"
	"github.com/ismaiel54/trade-ticket/internal/order"
	"github.com/ismaiel54/trade-ticket/internal/ticket"
	"github.com/ismaiel54/trade-ticket/internal/tradeapi"
	"github.com/ismaiel54/trade-ticket/internal/wallet"
	"go.uber.org/zap"
)

func main() {
	var (
		side   = flag.String("side", "BUY", "Order side: BUY, SELL or CONVERT")
		symbol = flag.String("symbol", "", "Symbol to trade (BUY/SELL)")
		qty    = flag.String("qty", "", "Quantity as a decimal string")
		from   = flag.String("from", "", "Source asset (CONVERT)")
		to     = flag.String("to", "", "Target asset (CONVERT)")
	)
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.LoadConfig("order-ticket")

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting order ticket",
		zap.String("side", *side),
		zap.String("trade_api", cfg.TradeAPIBaseURL),
		zap.String("data_dir", cfg.DataDir),
	)

	// Fill and validate the order form
	form := order.NewForm(order.Side(*side), order.NewAssetSet(cfg.Assets()))
	form.SetField(order.FieldSide, *side)
	form.SetField(order.FieldSymbol, *symbol)
	form.SetField(order.FieldFromAsset, *from)
	form.SetField(order.FieldToAsset, *to)
	form.SetField(order.FieldQuantity, *qty)

	req, err := form.Validate()
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "invalid order (%s): %s\n", verr.Field, verr.Message)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "invalid order: %v\n", err)
		os.Exit(2)
	}

	// Open the local attempt journal
	dbPath := filepath.Join(cfg.DataDir, "ticket.db")
	store, err := journal.Open(dbPath)
	if err != nil {
		logger.Fatal("failed to open attempt journal", zap.Error(err))
	}
	defer store.Close()

	// Trade API client doubles as the balance fetcher
	client := tradeapi.NewClient(cfg.TradeAPIBaseURL, cfg.HTTPTimeout, logger)
	balances := wallet.NewView(client, logger)

	// Optional receipt publisher
	var producer *msg.Producer
	receiptsTopic := ""
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err = msg.NewProducer(brokers, logger)
		if err != nil {
			logger.Fatal("failed to create kafka producer", zap.Error(err))
		}
		defer producer.Close()
		receiptsTopic = cfg.ReceiptsTopic
	}

	reconciler := ticket.NewReconciler(balances, form, logger)
	controller := ticket.NewController(client, reconciler, store, receiptsTopic, logger)

	ctx := context.Background()
	if err := controller.Submit(ctx, req); err != nil {
		state := controller.State()
		fmt.Fprintf(os.Stderr, "order failed: %s\n", state.ErrorMessage())
		if se, ok := tradeapi.AsSubmissionError(err); ok && se.Ambiguous() {
			fmt.Fprintf(os.Stderr, "no response received; the order may still have been accepted (request %s)\n", state.RequestID)
		}
		os.Exit(1)
	}

	state := controller.State()
	receipt := state.Receipt

	fmt.Printf("\n=== Trade Receipt ===\n")
	fmt.Printf("Journal:  %s\n", receipt.ShortJournalID())
	fmt.Printf("Side:     %s\n", receipt.Side)
	fmt.Printf("Symbol:   %s\n", receipt.Symbol)
	fmt.Printf("Quantity: %s\n", receipt.Quantity.String())
	fmt.Printf("Price:    %s\n", receipt.Price.String())
	fmt.Printf("Fee:      %s\n", receipt.Fee.String())
	fmt.Printf("\n")

	if bal := balances.Snapshot(); len(bal.Balances) > 0 {
		fmt.Printf("=== Balances ===\n")
		for _, b := range bal.Balances {
			fmt.Printf("%-8s available %s, locked %s\n", b.Asset, b.Available.String(), b.Locked.String())
		}
		fmt.Printf("\n")
	}

	// Drain the receipt outbox before exiting
	if producer != nil {
		publisher := journal.NewPublisher(store, producer, logger)
		drainCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := publisher.Run(drainCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("receipt publisher stopped", zap.Error(err))
		}
	}
}
