// Command soaprund runs the Soaprun game server: it loads rooms, map
// attributes, and entity definitions, verifies the room topology, then
// accepts TCP and WebSocket connections until an interrupt signal arrives.
//
// Adapted from cmd/l1jgo/main.go's run()/newLogger()/startup-display shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/config"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/entity"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/gameserver"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/legacymap"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/session"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "ConvertRooms" {
		err = runConvertRooms(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// runConvertRooms implements the `ConvertRooms <in_dir> <conversion_map_path>
// [out_dir]` subcommand, per spec §6's CLI surface. Grounded on
// original_source/src/legacy_map_conversion.rs::convert_rooms, invoked here
// instead of through a separate binary since the spec names it a subcommand
// of the one CLI, not a standalone tool.
func runConvertRooms(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: ConvertRooms <in_dir> <conversion_map_path> [out_dir]")
	}
	inDir := args[0]
	conversionMapPath := args[1]
	outDir := "rooms"
	if len(args) > 2 {
		outDir = args[2]
	}

	count := 0
	err := legacymap.ConvertRooms(inDir, conversionMapPath, outDir, func(line string) {
		fmt.Println(line)
		if strings.HasPrefix(line, "processed ") {
			count++
		}
	})
	if err != nil {
		return err
	}
	fmt.Printf("Converted %d rooms into %s\n", count, outDir)
	return nil
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               soaprund  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          Soaprun multiplayer server        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config.json"
	if p := os.Getenv("SOAPRUND_CONFIG"); p != "" {
		cfgPath = p
	}
	args := os.Args[1:]
	for i, a := range args {
		if (a == "-c" || a == "--config") && i+1 < len(args) {
			cfgPath = args[i+1]
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load the world: rooms, default room, map attributes, verify topology
	printSection("World")

	rooms, defaultRoom, err := worldstore.LoadRooms(cfg.RoomDirectory)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	printStat("Rooms loaded", len(rooms))

	attributes, err := worldstore.LoadMapAttributes(cfg.AttributesPath)
	if err != nil {
		return fmt.Errorf("load map attributes: %w", err)
	}
	printOK("Map attributes loaded")

	bounds, err := cfg.VerificationBounds()
	if err != nil {
		return fmt.Errorf("room_verification_bounds: %w", err)
	}
	mode, err := cfg.VerificationMode()
	if err != nil {
		return fmt.Errorf("room_verification_mode: %w", err)
	}
	// VerifyRooms compares tile types when given an attribute table, or raw
	// tile bytes when given nil; ModeTiles asks for the latter.
	verifyAttrs := attributes
	if mode == worldstore.ModeTiles {
		verifyAttrs = nil
	}
	if err := worldstore.VerifyRooms(rooms, defaultRoom, bounds, verifyAttrs); err != nil {
		return fmt.Errorf("room verification: %w", err)
	}
	printOK("Room topology verified")

	world := worldstore.NewStore(rooms, defaultRoom, attributes)

	// 4. Load entity roster
	entities, err := entity.LoadEntities(cfg.EntityPath)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	printStat("Entities loaded", len(entities))
	fmt.Println()

	// 5. Build the game server
	limits := gameserver.Limits{
		ConnectionTimeout: cfg.ConnectionTimeout(),
		IdleTimeout:       cfg.IdleTimeout(),
		Movement: session.MovementLimits{
			MaxDistancePerNode:   cfg.MaxPlayerDistancePerMovementNode,
			MaxNodesPerPacket:    cfg.MaxPlayerMovementNodesPerPacket,
			MaxDistancePerPacket: cfg.MaxPlayerDistancePerPacket,
		},
	}
	srv := gameserver.New(world, entities, limits, cfg.TickInterval(), cfg.MaxPlayers, log)

	if err := srv.Listen(cfg.Address); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// 6. Run until an interrupt signal arrives
	printSection("Server ready")
	printReady(fmt.Sprintf("Listening on %s", srv.Addr().String()))
	printReady(fmt.Sprintf("Tick interval %s, max players %d", cfg.TickInterval(), cfg.MaxPlayers))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		<-errCh
	case err := <-errCh:
		return err
	}
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
