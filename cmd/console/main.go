package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Iwinswap/iwinswap-cpamm-go/cmd/client/config"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc/client"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// --- VISUAL CONSTANTS ---
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"

	DefaultClientEventBufferSize = 100
	recentEventsLimit            = 20
	callTimeout                  = 10 * time.Second
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// EventLog is a thread-safe ring of the most recent pool events.
type EventLog struct {
	mu     sync.RWMutex
	events []client.Notification
	seq    uint64
}

func (l *EventLog) Add(n client.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, n)
	if len(l.events) > recentEventsLimit {
		l.events = l.events[len(l.events)-recentEventsLimit:]
	}
	l.seq++
}

// Recent returns a copy of the buffered events and the number of events seen.
func (l *EventLog) Recent() ([]client.Notification, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]client.Notification, len(l.events))
	copy(out, l.events)
	return out, l.seq
}

// Console bundles what the command handlers need.
type Console struct {
	ctx     context.Context
	caller  *client.Caller
	account common.Address
	events  *EventLog
	reader  *bufio.Reader
	logger  *slog.Logger
}

func main() {
	// --- 1. SETUP LOGGING (To File) ---
	logFile, err := os.OpenFile("console.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer logFile.Close()

	rootLogHandler := slog.NewJSONHandler(logFile, nil)
	rootLogger := slog.New(rootLogHandler)

	closeApp := func() {
		fmt.Println("\n" + Red + "Fatal error occurred. Check console.log for details." + Reset)
		os.Exit(1)
	}

	// --- 2. CONFIG & CONTEXT ---
	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		closeApp()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 3. INITIALIZE CALLER ---
	caller, err := client.Dial(ctx, cfg.RPCURL)
	if err != nil {
		rootLogger.Error("Failed to connect to pool daemon", "url", cfg.RPCURL, "error", err)
		closeApp()
	}
	defer caller.Close()

	// --- 4. INITIALIZE EVENT CLIENT ---
	eventClient, err := client.NewClient(
		ctx,
		client.Config{
			URL:        cfg.EventsURL,
			Logger:     rootLogger.With("component", "jsonrpc-client"),
			BufferSize: DefaultClientEventBufferSize,
		},
	)
	if err != nil {
		rootLogger.Error("Failed to initialize event client", "url", cfg.EventsURL, "error", err)
		closeApp()
	}

	// --- 5. START CONSOLE & EVENT LOOP ---
	eventLog := &EventLog{}
	console := &Console{
		ctx:     ctx,
		caller:  caller,
		account: cfg.AccountAddress(),
		events:  eventLog,
		reader:  bufio.NewReader(os.Stdin),
		logger:  rootLogger.With("component", "console"),
	}

	fmt.Println(Green + "Starting Pool Console..." + Reset)
	fmt.Println("Logs are being written to 'console.log'")
	go console.run()

	for {
		select {
		case n, ok := <-eventClient.Events():
			if !ok {
				return
			}
			eventLog.Add(n)

		case err, ok := <-eventClient.Err():
			if !ok {
				return
			}
			// The console still works without the live feed.
			rootLogger.Warn("Event stream unavailable", "error", err)

		case <-ctx.Done():
			fmt.Println("\n" + Yellow + "Shutting down..." + Reset)
			return
		}
	}
}

// run handles user input and display.
func (c *Console) run() {
	time.Sleep(500 * time.Millisecond)

	for {
		if c.ctx.Err() != nil {
			return
		}

		printMenu(c.account)

		fmt.Print(Bold + "Enter selection: " + Reset)
		input, err := c.reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			continue
		}
		input = strings.TrimSpace(input)

		c.handleCommand(input)

		fmt.Println("\n" + Gray + "[Press Enter to continue]" + Reset)
		c.reader.ReadString('\n')
	}
}

func printMenu(account common.Address) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(Bold + "POOL CONSOLE" + Reset + Gray + " | v0.1.0 | " + account.Hex() + Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %s1.%s Token List\n", Cyan, Reset)
	fmt.Printf(" %s2.%s Pool Summary\n", Cyan, Reset)
	fmt.Printf(" %s3.%s Find Pool  %s(by Address/Key)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s4.%s Find Pools %s(by Token)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s5.%s Balances\n", Cyan, Reset)
	fmt.Printf(" %s6.%s Quote Swap\n", Cyan, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sd.%s Deposit\n", Blue, Reset)
	fmt.Printf(" %sr.%s Redeem\n", Blue, Reset)
	fmt.Printf(" %ss.%s Swap\n", Blue, Reset)
	fmt.Printf(" %sy.%s Sync Pool\n", Blue, Reset)
	fmt.Printf(" %sw.%s Watch Events %s(Live Monitor)%s\n", Blue, Reset, Gray, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sh.%s Help\n", Yellow, Reset)
	fmt.Printf(" %sq.%s Quit\n", Red, Reset)
	fmt.Println("")
}

func (c *Console) handleCommand(input string) {
	switch input {
	case "1":
		c.printTokens()
	case "2":
		c.printPoolSummary()
	case "3":
		c.findPool()
	case "4":
		c.findPoolsByToken()
	case "5":
		c.printBalances()
	case "6":
		c.quoteSwap()
	case "d":
		c.deposit()
	case "r":
		c.redeem()
	case "s":
		c.swap()
	case "y":
		c.syncPool()
	case "w":
		c.watchEvents()
	case "h":
		printHelp()
	case "q":
		exitConsole()
	default:
		fmt.Println(Red + "Unknown command." + Reset)
	}
}

// --- COMMAND HANDLERS ---

func printHelp() {
	fmt.Print("\033[H\033[2J")

	header("CONSTANT-PRODUCT POOLS")
	fmt.Println("Each pool holds two assets and keeps " + Cyan + "reserveA * reserveB" + Reset + " from decreasing.")
	fmt.Println("")
	fmt.Println(Bold + "1. DEPOSIT" + Reset)
	fmt.Println("   The first deposit mints " + Yellow + "sqrt(a*b) - 1000" + Reset + " shares; 1000 are locked forever.")
	fmt.Println("   Later deposits mint the smaller of the two proportional amounts.")
	fmt.Println("")
	fmt.Println(Bold + "2. REDEEM" + Reset)
	fmt.Println("   Burns shares and returns the pro-rata slice of both reserves.")
	fmt.Println("")
	fmt.Println(Bold + "3. SWAP" + Reset)
	fmt.Println("   Sells one asset for the other with a " + Yellow + "0.3%" + Reset + " fee kept by the pool.")
	fmt.Println("   A minimum output protects against slippage.")
	fmt.Println("")
	fmt.Println(Bold + "4. SYNC" + Reset)
	fmt.Println("   Resets the reserves to the pool's actual ledger balances.")
	fmt.Println("")
	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
	fmt.Println("Tokens may be entered by symbol or address. Amounts are base units.")
	fmt.Println("Deposits and swaps need an allowance from your account to the pool.")
	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
}

func (c *Console) printTokens() {
	tokens, err := c.tokens()
	if err != nil {
		c.fail("Failed to load tokens", err)
		return
	}

	header("TOKENS")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tNAME\tDECIMALS\tADDRESS\t")
	fmt.Fprintln(w, "--\t------\t----\t--------\t-------\t")
	for _, t := range tokens.All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t\n", t.ID, t.Symbol, t.Name, t.Decimals, t.Address.Hex())
	}
	w.Flush()
}

func (c *Console) printPoolSummary() {
	ctx, cancel := c.callContext()
	defer cancel()

	registry, err := c.caller.Pools(ctx)
	if err != nil {
		c.fail("Failed to load pools", err)
		return
	}
	states, err := c.caller.PoolStates(ctx)
	if err != nil {
		c.fail("Failed to load pool states", err)
		return
	}
	live := uniswapv2.New().Index(states)
	tokens := token.NewIndexableTokenSystem(registry.Tokens)

	header("POOL SUMMARY")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ID\tPAIR\tRESERVE A\tRESERVE B\tSHARES\tADDRESS\t")
	fmt.Fprintln(w, "--\t----\t---------\t---------\t------\t-------\t")
	for _, p := range registry.Pools {
		state, ok := live.GetByAddress(p.Address)
		if !ok {
			fmt.Fprintf(w, "%d\t%s\t%s<Missing>%s\t\t\t%s\t\n", p.ID, pairName(tokens, p), Red, Reset, p.Address.Hex())
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			p.ID, pairName(tokens, p), state.ReserveA, state.ReserveB, state.TotalShares, p.Address.Hex())
	}
	w.Flush()

	funded := 0
	for _, state := range live.All() {
		if !state.TotalShares.IsZero() {
			funded++
		}
	}
	fmt.Printf("\n%sPools: %d (%d funded)%s\n", Bold, len(registry.Pools), funded, Reset)
}

func (c *Console) findPool() {
	fmt.Print("\n" + Bold + "[Find Pool] Enter Pool Address or Key (32-byte hex): " + Reset)
	input := c.readLine()
	if input == "" {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	registry, err := c.caller.Pools(ctx)
	if err != nil {
		c.fail("Failed to load pools", err)
		return
	}
	pools := poolregistry.NewIndexablePoolRegistry(registry.Pools)

	var (
		pool  poolregistry.PoolView
		found bool
	)
	if key, err := poolregistry.ParsePoolKey(input); err == nil {
		pool, found = pools.GetByPoolKey(key)
	} else if common.IsHexAddress(input) {
		pool, found = pools.GetByAddress(common.HexToAddress(input))
	} else {
		fmt.Println(Red + "[ERROR] Expected a 20-byte address or a 32-byte key." + Reset)
		return
	}
	if !found {
		fmt.Println(Red + "[NOT FOUND] Pool not found in registry." + Reset)
		return
	}

	c.printPool(ctx, token.NewIndexableTokenSystem(registry.Tokens), pool)
}

func (c *Console) findPoolsByToken() {
	fmt.Print("\n" + Bold + "[Find Pools] Enter Token Symbol or Address: " + Reset)
	input := c.readLine()
	if input == "" {
		return
	}

	tokens, err := c.tokens()
	if err != nil {
		c.fail("Failed to load tokens", err)
		return
	}
	tok, ok := resolveToken(tokens, input)
	if !ok {
		fmt.Println(Red + "[NOT FOUND] Token not found in registry." + Reset)
		return
	}
	fmt.Printf("%sFound Token: %s (ID: %d)%s\n", Green, tok.Symbol, tok.ID, Reset)

	ctx, cancel := c.callContext()
	defer cancel()

	ids, err := c.caller.PoolsForToken(ctx, tok.Address)
	if err != nil {
		c.fail("Failed to load pools for token", err)
		return
	}
	if len(ids) == 0 {
		fmt.Println(Yellow + "[INFO] No pools found for this token." + Reset)
		return
	}
	if graph, err := c.caller.TokenPools(ctx); err == nil {
		printRoutes(tokens, graph, tok.Address)
	}

	registry, err := c.caller.Pools(ctx)
	if err != nil {
		c.fail("Failed to load pools", err)
		return
	}
	pools := poolregistry.NewIndexablePoolRegistry(registry.Pools)

	header(fmt.Sprintf("POOLS FOR %s", tok.Symbol))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ID\tPAIR\tPOOL ADDRESS\t")
	fmt.Fprintln(w, "--\t----\t------------\t")
	for _, id := range ids {
		pool, exists := pools.GetByID(id)
		if !exists {
			fmt.Fprintf(w, "%d\t%s???%s\t<Missing>\t\n", id, Red, Reset)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", id, pairName(tokens, pool), pool.Address.Hex())
	}
	w.Flush()
}

func (c *Console) printBalances() {
	tokens, err := c.tokens()
	if err != nil {
		c.fail("Failed to load tokens", err)
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()

	header("BALANCES")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ASSET\tBALANCE\t")
	fmt.Fprintln(w, "-----\t-------\t")
	for _, t := range tokens.All() {
		bal, err := c.caller.BalanceOf(ctx, t.Address, c.account)
		if err != nil {
			fmt.Fprintf(w, "%s\t%sERROR%s\t\n", t.Symbol, Red, Reset)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t\n", t.Symbol, bal)
	}

	registry, err := c.caller.Pools(ctx)
	if err == nil {
		for _, p := range registry.Pools {
			shares, err := c.caller.SharesOf(ctx, p.Address, c.account)
			if err != nil || shares.IsZero() {
				continue
			}
			fmt.Fprintf(w, "%s shares\t%s\t\n", pairName(tokens, p), shares)
		}
	}
	w.Flush()
}

func (c *Console) quoteSwap() {
	pool, tokens, ok := c.promptPool()
	if !ok {
		return
	}
	assetIn, ok := c.promptToken(tokens, "Asset In")
	if !ok {
		return
	}
	amountIn, ok := c.promptAmount("Amount In")
	if !ok {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	out, err := c.caller.QuoteSwap(ctx, pool.Address, assetIn.Address, amountIn)
	if err != nil {
		c.fail("Quote failed", err)
		return
	}
	fmt.Printf("%sQuote:%s %s %s -> %s%s%s\n", Green, Reset, amountIn, assetIn.Symbol, Bold, out, Reset)
}

func (c *Console) deposit() {
	pool, _, ok := c.promptPool()
	if !ok {
		return
	}
	amountA, ok := c.promptAmount("Amount A")
	if !ok {
		return
	}
	amountB, ok := c.promptMatchingAmount(pool, amountA)
	if !ok {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	shares, err := c.caller.Deposit(ctx, pool.Address, c.account, amountA, amountB)
	if err != nil {
		c.fail("Deposit failed", err)
		return
	}
	c.logger.Info("Deposited", "pool", pool.Address, "amountA", amountA, "amountB", amountB, "shares", shares)
	fmt.Printf("%sMinted %s shares.%s\n", Green, shares, Reset)
}

func (c *Console) redeem() {
	pool, _, ok := c.promptPool()
	if !ok {
		return
	}
	shares, ok := c.promptAmount("Shares")
	if !ok {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	res, err := c.caller.Redeem(ctx, pool.Address, c.account, shares)
	if err != nil {
		c.fail("Redeem failed", err)
		return
	}
	c.logger.Info("Redeemed", "pool", pool.Address, "shares", shares, "amountA", res.AmountA, "amountB", res.AmountB)
	fmt.Printf("%sReceived %s A and %s B.%s\n", Green, res.AmountA, res.AmountB, Reset)
}

func (c *Console) swap() {
	pool, tokens, ok := c.promptPool()
	if !ok {
		return
	}
	assetIn, ok := c.promptToken(tokens, "Asset In")
	if !ok {
		return
	}
	amountIn, ok := c.promptAmount("Amount In")
	if !ok {
		return
	}
	minOut, ok := c.promptAmount("Minimum Out")
	if !ok {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	out, err := c.caller.Swap(ctx, pool.Address, c.account, assetIn.Address, amountIn, minOut)
	if err != nil {
		c.fail("Swap failed", err)
		return
	}
	c.logger.Info("Swapped", "pool", pool.Address, "assetIn", assetIn.Symbol, "amountIn", amountIn, "amountOut", out)
	fmt.Printf("%sReceived %s.%s\n", Green, out, Reset)
}

func (c *Console) syncPool() {
	pool, _, ok := c.promptPool()
	if !ok {
		return
	}

	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.caller.Sync(ctx, pool.Address); err != nil {
		c.fail("Sync failed", err)
		return
	}
	fmt.Println(Green + "Reserves resynced." + Reset)
}

func (c *Console) watchEvents() {
	fmt.Println(Green + "Starting Live Watch... (Press 'Enter' to stop)" + Reset)
	time.Sleep(1 * time.Second)

	stopCh := make(chan struct{})
	go func() {
		c.reader.ReadString('\n')
		close(stopCh)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lastSeq := ^uint64(0)
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			recent, seq := c.events.Recent()
			if seq == lastSeq {
				continue
			}
			lastSeq = seq

			fmt.Print("\033[H\033[2J")
			fmt.Printf(Bold+"--- LIVE MONITOR (Events: %d) ---\n"+Reset, seq)
			fmt.Println(Gray + "Press ENTER to return to menu." + Reset)
			printEvents(recent)
		}
	}
}

// --- HELPERS ---

func printEvents(recent []client.Notification) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tPOOL\tEVENT\tDETAILS\t")
	for _, n := range recent {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			n.SentAt.Format("15:04:05.000"), shortAddress(n.Pool), n.Event.Kind(), describeEvent(n.Event))
	}
	w.Flush()
}

// printRoutes lists the tokens tok trades against, with the number of pools
// on each edge of the token graph.
func printRoutes(tokens *token.IndexableTokenSystem, graph *poolregistry.TokenPoolsRegistryView, tok common.Address) {
	idx := slices.Index(graph.Tokens, tok)
	if idx < 0 || idx >= len(graph.Adjacency) {
		return
	}
	var routes []string
	for _, edge := range graph.Adjacency[idx] {
		target := graph.Tokens[graph.EdgeTargets[edge]]
		name := shortAddress(target)
		if t, ok := tokens.GetByAddress(target); ok {
			name = t.Symbol
		}
		routes = append(routes, fmt.Sprintf("%s (%d)", name, len(graph.EdgePools[edge])))
	}
	if len(routes) > 0 {
		fmt.Printf("%sTrades against: %s%s\n", Gray, strings.Join(routes, ", "), Reset)
	}
}

func describeEvent(e uniswapv2.Event) string {
	switch ev := e.(type) {
	case uniswapv2.DepositEvent:
		return fmt.Sprintf("%s%s%s +%s/%s shares=%s", Green, shortAddress(ev.Provider), Reset, ev.AmountA, ev.AmountB, ev.SharesMinted)
	case uniswapv2.RedeemEvent:
		return fmt.Sprintf("%s%s%s -%s/%s shares=%s", Yellow, shortAddress(ev.Provider), Reset, ev.AmountA, ev.AmountB, ev.SharesBurned)
	case uniswapv2.SwapEvent:
		return fmt.Sprintf("%s%s%s in=%s (%s) out=%s", Cyan, shortAddress(ev.Caller), Reset, ev.AmountIn, shortAddress(ev.InputAsset), ev.AmountOut)
	case uniswapv2.SyncEvent:
		return fmt.Sprintf("%sreserves=%s/%s%s", Gray, ev.ReserveA, ev.ReserveB, Reset)
	default:
		return fmt.Sprintf("%v", e)
	}
}

func (c *Console) printPool(ctx context.Context, tokens *token.IndexableTokenSystem, pool poolregistry.PoolView) {
	printField := func(key string, value any) {
		fmt.Printf("  %s%-15s%s %v\n", Gray, key+":", Reset, value)
	}

	header("POOL REGISTRY DATA")
	printField("Registry ID", pool.ID)
	printField("Pool Key", pool.Key)
	printField("Address", pool.Address.Hex())
	printField("Pair", pairName(tokens, pool))

	state, err := c.caller.PoolState(ctx, pool.Address)
	if err != nil {
		c.fail("Failed to load pool state", err)
		return
	}
	header("LIVE DATA")
	printField("Reserve A", state.ReserveA)
	printField("Reserve B", state.ReserveB)
	printField("Total Shares", state.TotalShares)
}

func (c *Console) promptPool() (poolregistry.PoolView, *token.IndexableTokenSystem, bool) {
	fmt.Print("\n" + Bold + "Pool (address, or two tokens as A/B): " + Reset)
	input := c.readLine()
	if input == "" {
		return poolregistry.PoolView{}, nil, false
	}

	ctx, cancel := c.callContext()
	defer cancel()
	registry, err := c.caller.Pools(ctx)
	if err != nil {
		c.fail("Failed to load pools", err)
		return poolregistry.PoolView{}, nil, false
	}
	tokens := token.NewIndexableTokenSystem(registry.Tokens)
	pools := poolregistry.NewIndexablePoolRegistry(registry.Pools)

	var (
		pool  poolregistry.PoolView
		found bool
	)
	if a, b, isPair := strings.Cut(input, "/"); isPair {
		ta, okA := resolveToken(tokens, strings.TrimSpace(a))
		tb, okB := resolveToken(tokens, strings.TrimSpace(b))
		if okA && okB {
			pool, found = pools.GetByPair(ta.Address, tb.Address)
		}
	} else if common.IsHexAddress(input) {
		pool, found = pools.GetByAddress(common.HexToAddress(input))
	}
	if !found {
		fmt.Println(Red + "[NOT FOUND] Pool not found in registry." + Reset)
		return poolregistry.PoolView{}, nil, false
	}
	fmt.Printf(Gray+"Using pool %d (%s)%s\n", pool.ID, pairName(tokens, pool), Reset)
	return pool, tokens, true
}

// promptMatchingAmount offers the asset B amount that matches amountA at the
// pool's current price. An empty answer takes the offer.
func (c *Console) promptMatchingAmount(pool poolregistry.PoolView, amountA *uint256.Int) (*uint256.Int, bool) {
	ctx, cancel := c.callContext()
	defer cancel()
	state, err := c.caller.PoolState(ctx, pool.Address)
	if err != nil {
		c.fail("Failed to load pool state", err)
		return nil, false
	}
	suggested, err := uniswapv2.Quote(amountA, state.ReserveA, state.ReserveB)
	if err != nil {
		// empty pool: the first deposit sets the price
		return c.promptAmount("Amount B")
	}

	fmt.Printf(Bold+"Amount B [%s]: "+Reset, suggested)
	input := c.readLine()
	if input == "" {
		return suggested, true
	}
	amount, err := uint256.FromDecimal(input)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Invalid amount: %v%s\n", err, Reset)
		return nil, false
	}
	if amount.Gt(suggested) {
		fmt.Println(Yellow + "[WARN] Amount B exceeds the pool price; the surplus is donated to the pool." + Reset)
	}
	return amount, true
}

func (c *Console) promptToken(tokens *token.IndexableTokenSystem, label string) (token.TokenView, bool) {
	fmt.Print(Bold + label + " (symbol or address): " + Reset)
	tok, ok := resolveToken(tokens, c.readLine())
	if !ok {
		fmt.Println(Red + "[NOT FOUND] Token not found in registry." + Reset)
	}
	return tok, ok
}

func (c *Console) promptAmount(label string) (*uint256.Int, bool) {
	fmt.Print(Bold + label + ": " + Reset)
	amount, err := uint256.FromDecimal(c.readLine())
	if err != nil {
		fmt.Printf(Red+"[ERROR] Invalid amount: %v%s\n", err, Reset)
		return nil, false
	}
	return amount, true
}

func (c *Console) tokens() (*token.IndexableTokenSystem, error) {
	ctx, cancel := c.callContext()
	defer cancel()
	list, err := c.caller.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	return token.NewIndexableTokenSystem(list), nil
}

func (c *Console) readLine() string {
	input, _ := c.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (c *Console) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, callTimeout)
}

func (c *Console) fail(msg string, err error) {
	c.logger.Error(msg, "error", err)
	fmt.Printf(Red+"[ERROR] %s: %v%s\n", msg, err, Reset)
}

func resolveToken(tokens *token.IndexableTokenSystem, input string) (token.TokenView, bool) {
	if common.IsHexAddress(input) {
		return tokens.GetByAddress(common.HexToAddress(input))
	}
	return tokens.GetBySymbol(input)
}

func pairName(tokens *token.IndexableTokenSystem, pool poolregistry.PoolView) string {
	symbol := func(addr common.Address) string {
		if t, ok := tokens.GetByAddress(addr); ok {
			return t.Symbol
		}
		return shortAddress(addr)
	}
	return symbol(pool.AssetA) + "/" + symbol(pool.AssetB)
}

func shortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + ".." + hex[len(hex)-4:]
}

func exitConsole() {
	fmt.Println(Yellow + "Exiting..." + Reset)
	os.Exit(0)
}

func loadConfig() (*config.ClientConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
