package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/backup"
	"github.com/ksred/trading-journal/internal/catalog"
	"github.com/ksred/trading-journal/internal/database"
	"github.com/ksred/trading-journal/internal/journal"
	"github.com/ksred/trading-journal/internal/settings"
	"github.com/ksred/trading-journal/internal/stats"
	"github.com/ksred/trading-journal/internal/tags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minTrades     = 20
	maxTrades     = 80
	serverAddress = "http://localhost:8080"
)

var (
	instruments = []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD", "BTCUSD"}
	strategies  = []string{"Breakout", "Mean Reversion", "Trend Follow"}
	directions  = []string{"LONG", "SHORT"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes min, max, mean, median, 95th and 99th percentile
// durations from the recorded measurements
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the journal API
type simulationClient struct {
	baseURL string
	client  *http.Client
	stats   map[string]*routeStats
}

func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"account": {name: "Create Account"},
			"trade":   {name: "Add Transaction"},
			"catalog": {name: "Register Labels"},
			"tags":    {name: "Tag Operations"},
			"stats":   {name: "Account Stats"},
			"backup":  {name: "Export Snapshot"},
		},
	}
}

// post issues a JSON POST and decodes the standard response envelope's data
// into out.
func (sc *simulationClient) post(route, path string, payload, out interface{}) error {
	start := time.Now()
	defer func() {
		sc.stats[route].addDuration(time.Since(start))
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := sc.client.Post(sc.baseURL+path, "application/json", bytes.NewBuffer(body))
	if err != nil {
		sc.stats[route].failures++
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		sc.stats[route].failures++
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// get issues a GET and decodes the envelope's data into out.
func (sc *simulationClient) get(route, path string, out interface{}) error {
	start := time.Now()
	defer func() {
		sc.stats[route].addDuration(time.Since(start))
	}()

	resp, err := sc.client.Get(sc.baseURL + path)
	if err != nil {
		sc.stats[route].failures++
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		sc.stats[route].failures++
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// printPerformanceStats prints per-route latency statistics for the run
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("API PERFORMANCE STATISTICS")
	fmt.Println(strings.Repeat("=", 80))

	for _, rs := range sc.stats {
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("\n%s (%d calls, %d failures)\n", rs.name, rs.totalCalls, rs.failures)
		fmt.Printf("  min=%v max=%v mean=%v median=%v p95=%v p99=%v\n",
			min, max, mean, median, p95, p99)
	}
}

func main() {
	// Start the journal server in-process against a throwaway store
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	time.Sleep(500 * time.Millisecond)

	sc := newSimulationClient()

	// Open an account
	var acct struct {
		ID             uint    `json:"id"`
		CurrentBalance float64 `json:"current_balance"`
	}
	err := sc.post("account", "/api/v1/accounts", map[string]interface{}{
		"name":            fmt.Sprintf("Simulation %d", time.Now().Unix()),
		"initial_balance": 10000.0,
		"leverage":        100,
	}, &acct)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create account")
	}
	log.Info().Uint("account_id", acct.ID).Msg("Account created")

	// Register the label sets
	base := fmt.Sprintf("/api/v1/accounts/%d", acct.ID)
	for _, s := range strategies {
		if err := sc.post("catalog", base+"/strategies", map[string]string{"name": s}, nil); err != nil {
			log.Error().Err(err).Str("strategy", s).Msg("Failed to register strategy")
		}
	}
	for _, i := range instruments {
		if err := sc.post("catalog", base+"/instruments", map[string]string{"name": i}, nil); err != nil {
			log.Error().Err(err).Str("instrument", i).Msg("Failed to register instrument")
		}
	}

	// A tag definition with a confidence field, applied to some trades
	var tagDef struct {
		ID uint `json:"id"`
	}
	err = sc.post("tags", base+"/tags", map[string]interface{}{
		"name":     "Setup Quality",
		"category": "Pre-Trade Checklist",
	}, &tagDef)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tag definition")
	}
	var tagField struct {
		ID uint `json:"id"`
	}
	err = sc.post("tags", fmt.Sprintf("/api/v1/tags/%d/fields", tagDef.ID), map[string]interface{}{
		"field_name": "Confidence",
		"field_type": "number",
	}, &tagField)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tag field")
	}

	// Record random trades
	numTrades := minTrades + rand.Intn(maxTrades-minTrades)
	tradeDay := time.Now().AddDate(0, 0, -numTrades)
	for i := 0; i < numTrades; i++ {
		entry := 1.0 + rand.Float64()
		stopDistance := 0.002 + rand.Float64()*0.01
		exitDistance := -0.01 + rand.Float64()*0.03

		var txn struct {
			ID  uint    `json:"id"`
			PnL float64 `json:"pnl"`
		}
		err := sc.post("trade", base+"/transactions", map[string]interface{}{
			"instrument":   instruments[rand.Intn(len(instruments))],
			"strategy":     strategies[rand.Intn(len(strategies))],
			"direction":    directions[rand.Intn(len(directions))],
			"entry_price":  entry,
			"stop_loss":    entry - stopDistance,
			"exit_price":   entry + exitDistance,
			"risk_percent": 1 + rand.Float64()*2,
			"date":         tradeDay.AddDate(0, 0, i).Format("2006-01-02"),
		}, &txn)
		if err != nil {
			log.Error().Err(err).Msg("Failed to add transaction")
			continue
		}

		// Tag roughly a third of the trades
		if i%3 == 0 {
			var tagInstance struct {
				ID uint `json:"id"`
			}
			err := sc.post("tags", fmt.Sprintf("/api/v1/transactions/%d/tags", txn.ID), map[string]interface{}{
				"tag_definition_id": tagDef.ID,
			}, &tagInstance)
			if err != nil {
				log.Error().Err(err).Msg("Failed to attach tag")
				continue
			}
			err = sc.post("tags", fmt.Sprintf("/api/v1/transaction-tags/%d/values", tagInstance.ID), map[string]interface{}{
				"tag_field_id": tagField.ID,
				"value":        fmt.Sprintf("%d", 1+rand.Intn(10)),
			}, nil)
			if err != nil {
				log.Error().Err(err).Msg("Failed to record tag value")
			}
		}
	}

	// Pull the aggregate statistics
	var accountStats struct {
		TotalTrades   int     `json:"total_trades"`
		WinningTrades int     `json:"winning_trades"`
		LosingTrades  int     `json:"losing_trades"`
		TotalPnL      float64 `json:"total_pnl"`
		WinRate       float64 `json:"win_rate"`
		AvgRRRatio    float64 `json:"avg_rr_ratio"`
	}
	if err := sc.get("stats", base+"/stats", &accountStats); err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch stats")
	}

	// Export a snapshot to round out the run
	var snap struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := sc.get("backup", "/api/v1/backup", &snap); err != nil {
		log.Error().Err(err).Msg("Failed to export snapshot")
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("JOURNAL SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Total Trades:   %d
Winners:        %d
Losers:         %d
Total P&L:      $%.2f
Win Rate:       %.1f%%
Avg R:R:        %.2f
Snapshot:       %s
`, accountStats.TotalTrades, accountStats.WinningTrades, accountStats.LosingTrades,
		accountStats.TotalPnL, accountStats.WinRate, accountStats.AvgRRRatio, snap.SnapshotID)

	sc.printPerformanceStats()
}

// startServer initializes and starts the journal API server on a
// throwaway database file
func startServer() error {
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	router := gin.Default()

	accountHandlers := account.NewGinHandlers(account.NewService(db))
	journalHandlers := journal.NewGinHandlers(journal.NewService(db))
	catalogHandlers := catalog.NewGinHandlers(catalog.NewService(db))
	tagHandlers := tags.NewGinHandlers(tags.NewService(db))
	settingsHandlers := settings.NewGinHandlers(settings.NewService(db))
	statsHandlers := stats.NewGinHandlers(stats.NewService(db))
	backupHandlers := backup.NewGinHandlers(backup.NewService(db))

	setupRoutes(router, accountHandlers, journalHandlers, catalogHandlers,
		tagHandlers, settingsHandlers, statsHandlers, backupHandlers)

	return router.Run(":8080")
}

// setupRoutes configures the API endpoints used by the simulation
func setupRoutes(
	router *gin.Engine,
	accountHandlers *account.GinHandlers,
	journalHandlers *journal.GinHandlers,
	catalogHandlers *catalog.GinHandlers,
	tagHandlers *tags.GinHandlers,
	settingsHandlers *settings.GinHandlers,
	statsHandlers *stats.GinHandlers,
	backupHandlers *backup.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandlers.CreateAccountHandler())
			accounts.GET("", accountHandlers.ListAccountsHandler())
			accounts.GET("/:account_id", accountHandlers.GetAccountHandler())
			accounts.PUT("/:account_id/balance", accountHandlers.UpdateBalanceHandler())
			accounts.DELETE("/:account_id", accountHandlers.DeleteAccountHandler())
			accounts.POST("/:account_id/transactions", journalHandlers.AddTransactionHandler())
			accounts.GET("/:account_id/transactions", journalHandlers.ListTransactionsHandler())
			accounts.POST("/:account_id/strategies", catalogHandlers.AddStrategyHandler())
			accounts.GET("/:account_id/strategies", catalogHandlers.ListStrategiesHandler())
			accounts.POST("/:account_id/instruments", catalogHandlers.AddInstrumentHandler())
			accounts.GET("/:account_id/instruments", catalogHandlers.ListInstrumentsHandler())
			accounts.POST("/:account_id/tags", tagHandlers.AddDefinitionHandler())
			accounts.GET("/:account_id/tags", tagHandlers.ListDefinitionsHandler())
			accounts.GET("/:account_id/stats", statsHandlers.StatsHandler())
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:transaction_id", journalHandlers.GetTransactionHandler())
			transactions.PUT("/:transaction_id", journalHandlers.UpdateTransactionHandler())
			transactions.DELETE("/:transaction_id", journalHandlers.DeleteTransactionHandler())
			transactions.PUT("/:transaction_id/notes", journalHandlers.UpdateNotesHandler())
			transactions.POST("/:transaction_id/tags", tagHandlers.AttachTagHandler())
			transactions.GET("/:transaction_id/tags", tagHandlers.ListWithValuesHandler())
		}

		v1.DELETE("/strategies/:strategy_id", catalogHandlers.DeleteStrategyHandler())
		v1.DELETE("/instruments/:instrument_id", catalogHandlers.DeleteInstrumentHandler())

		tagGroup := v1.Group("/tags")
		{
			tagGroup.DELETE("/:tag_id", tagHandlers.DeleteDefinitionHandler())
			tagGroup.POST("/:tag_id/fields", tagHandlers.AddFieldHandler())
			tagGroup.GET("/:tag_id/fields", tagHandlers.ListFieldsHandler())
		}
		v1.PUT("/fields/:field_id", tagHandlers.UpdateFieldHandler())
		v1.DELETE("/fields/:field_id", tagHandlers.DeleteFieldHandler())

		v1.DELETE("/transaction-tags/:transaction_tag_id", tagHandlers.DetachTagHandler())
		v1.POST("/transaction-tags/:transaction_tag_id/values", tagHandlers.AddValueHandler())
		v1.PUT("/tag-values/:value_id", tagHandlers.UpdateValueHandler())

		settingsGroup := v1.Group("/settings")
		{
			settingsGroup.PUT("/:key", settingsHandlers.SetHandler())
			settingsGroup.GET("/:key", settingsHandlers.GetHandler())
		}

		backupGroup := v1.Group("/backup")
		{
			backupGroup.GET("", backupHandlers.ExportHandler())
			backupGroup.POST("", backupHandlers.ImportHandler())
		}
	}
}
