package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guabee/golomb/golombv2/bench"
	"github.com/guabee/golomb/golombv2/cluster"
	conf "github.com/guabee/golomb/golombv2/config"
	"github.com/guabee/golomb/golombv2/log"
	"github.com/guabee/golomb/golombv2/runid"
	"github.com/guabee/golomb/golombv2/search"
	"github.com/guabee/golomb/golombv2/store"
	"github.com/guabee/golomb/util"
)

var (
	BuildVersion = "v0.0.0-build.0"
	CommitID     = "Local"
	BuildTime    = "2006-01-02 15:04:05"
	BuildName    = "Golomb"
)

const (
	exitBadArgs    = 2
	exitCollective = 3
)

func main() {
	conf.BuildName = BuildName
	config, err := conf.ParseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(exitBadArgs)
	}

	if conf.VersionOnly() {
		fmt.Printf("%s %s %s %s\n", BuildVersion, BuildName, CommitID, BuildTime)
		return
	}

	log.SetDefaultLevel(config.LogLevel)
	for _, pair := range config.ModuleLevels() {
		log.SetModuleLevel(pair[0], pair[1])
	}
	logger := log.NewLoggerEntry("main")

	if config.ReportFile != "" {
		if config.BenchFile == "" {
			fmt.Fprintln(os.Stderr, "report needs --bench to point at the csv file")
			os.Exit(exitBadArgs)
		}
		if err := bench.Render(config.BenchFile, config.ReportFile); err != nil {
			fmt.Fprintf(os.Stderr, "report error: %s\n", err)
			os.Exit(exitBadArgs)
		}
		logger.Infof("report written to %s", config.ReportFile)
		return
	}

	if err := search.ValidateArgs(config.Marks, config.MaxLen, config.Threads); err != nil {
		fmt.Fprintf(os.Stderr, "invalid arguments: %s\n", err)
		os.Exit(exitBadArgs)
	}
	if config.Size < 1 || config.Rank < 0 || config.Rank >= config.Size {
		fmt.Fprintf(os.Stderr, "invalid arguments: rank %d / size %d\n", config.Rank, config.Size)
		os.Exit(exitBadArgs)
	}

	id := runid.New()
	logger = logger.WithField("run", id)

	var rulers *store.RulerStore
	if config.StorePath != "" {
		rulers, err = store.Open(config.StorePath)
		if err != nil {
			logger.Warnf("ruler archive unavailable: %s", err)
			rulers = nil
		} else {
			defer rulers.Close()
		}
	}

	maxLen := config.MaxLen
	var initial search.Solution
	if config.UseBest {
		if rulers != nil {
			if sol, found, err := rulers.Best(config.Marks); err == nil && found && sol.Length <= maxLen {
				initial = sol
				maxLen = sol.Length
				logger.Infof("archive bound: length=%d", sol.Length)
			}
		}
		if initial.Empty() {
			if known := search.KnownOptimal(config.Marks); known > 0 && known < maxLen {
				maxLen = known
				logger.Infof("known-optimum bound: length=%d", known)
			}
		}
	}

	coll, err := buildCollective(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collective setup failed (rank %d): %s\n", config.Rank, err)
		os.Exit(exitCollective)
	}
	defer coll.Close()

	events := util.NewPubSub()
	events.SubscribeFunc("main", search.TopicBound, func(msg util.PubSubMsgType) {
		sol := msg.(search.Solution)
		logger.Infof("improved bound: length=%d marks=%v", sol.Length, sol.Marks)
	})

	coordinator := cluster.NewCoordinator(coll)
	runCfg := cluster.Config{
		N:              config.Marks,
		MaxLen:         maxLen,
		Threads:        config.Threads,
		SyncInterval:   config.SyncInterval(),
		PrefixDepth:    config.PrefixDepth(),
		MirrorBreak:    config.MirrorBreak(),
		Greedy:         config.Greedy,
		Initial:        initial,
		Events:         events,
		ReportInterval: config.ReportInterval(),
	}

	logger.Infof("searching n=%d maxLen=%d rank=%d/%d threads=%d", config.Marks, maxLen, config.Rank, config.Size, config.Threads)

	started := time.Now()
	result, err := coordinator.Run(runCfg)
	elapsed := time.Since(started)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed (rank %d): %s\n", config.Rank, err)
		os.Exit(exitCollective)
	}

	printResult(config, result, elapsed)

	if config.Rank == 0 {
		if rulers != nil && !result.Solution.Empty() {
			if err := rulers.Put(config.Marks, result.Solution); err != nil {
				logger.Warnf("archive update failed: %s", err)
			}
		}
		if config.BenchFile != "" {
			appendBenchRow(config, result, elapsed, id, logger)
		}
	}
}

func buildCollective(config conf.Config) (cluster.Collective, error) {
	if config.Size == 1 {
		return cluster.Single{}, nil
	}
	if config.Rank == 0 {
		hub, err := cluster.NewHub(config.Hub, config.Size)
		if err != nil {
			return nil, err
		}
		if err := hub.WaitReady(config.JoinTimeout()); err != nil {
			hub.Close()
			return nil, err
		}
		return hub, nil
	}
	return cluster.Dial(config.Hub, config.Rank, config.Size, config.JoinTimeout())
}

func appendBenchRow(config conf.Config, result cluster.Result, elapsed time.Duration, id string, logger *log.Entry) {
	length := -1
	if !result.Solution.Empty() {
		length = result.Solution.Length
	}
	description := config.Description
	if description == "" {
		description = fmt.Sprintf("run=%s", id)
	}
	row := bench.Row{
		N:           config.Marks,
		Procs:       config.Size,
		Threads:     config.Threads,
		Length:      length,
		TimeS:       elapsed.Seconds(),
		States:      result.Explored,
		Description: description,
	}
	if err := bench.NewLogger(config.BenchFile).Append(row); err != nil {
		logger.Warnf("benchmark append failed: %s", err)
	}
}

func printResult(config conf.Config, result cluster.Result, elapsed time.Duration) {
	if config.Rank != 0 {
		return
	}
	if result.Solution.Empty() {
		fmt.Printf("no ruler with %d marks fits in length %d (%.3fs, %d states)\n",
			config.Marks, config.MaxLen, elapsed.Seconds(), result.Explored)
		return
	}

	marks := make([]string, len(result.Solution.Marks))
	for i, m := range result.Solution.Marks {
		marks[i] = fmt.Sprintf("%d", m)
	}
	fmt.Printf("ruler n=%d length=%d marks=[%s]\n", config.Marks, result.Solution.Length, strings.Join(marks, " "))
	fmt.Printf("elapsed=%.3fs states=%d prefixes=%d\n", elapsed.Seconds(), result.Explored, result.Prefixes)
	if known := search.KnownOptimal(config.Marks); known > 0 {
		if result.Solution.Length == known {
			fmt.Println("status: optimal")
		} else {
			fmt.Printf("status: known optimum is %d\n", known)
		}
	}
}
