package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/guabee/golomb/golombv2/search"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	BuildName string = ""
)

// OptionMap holds the loosely-typed tuning section of the config file.
type OptionMap map[string]interface{}

func (o OptionMap) GetInt(key string, defaultValue int) (i int) {
	i = defaultValue
	if v, ok := o[key]; ok {
		i = cast.ToInt(v)
	}
	return
}

func (o OptionMap) GetBool(key string, defaultValue bool) (b bool) {
	b = defaultValue
	if v, ok := o[key]; ok {
		b = cast.ToBool(v)
	}
	return
}

func (o OptionMap) GetDuration(key string, defaultValue time.Duration) (d time.Duration) {
	d = defaultValue
	if v, ok := o[key]; ok {
		d = cast.ToDuration(v)
	}
	return
}

type Config struct {
	Marks       int    `json:"marks"`
	MaxLen      int    `json:"maxLen"`
	Threads     int    `json:"threads"`
	Rank        int    `json:"rank"`
	Size        int    `json:"size"`
	Hub         string `json:"hub"`
	UseBest     bool   `json:"useBest"`
	Greedy      bool   `json:"greedy"`
	StorePath   string `json:"storePath"`
	BenchFile   string `json:"benchFile"`
	ReportFile  string `json:"reportFile"`
	Description string `json:"description"`
	LogLevel    string `json:"logLevel"`
	LogModules  string `json:"logModules"`
	// Tuning holds the knobs most runs never touch: sync_interval,
	// prefix_depth, mirror_break, report_interval, join_timeout.
	Tuning OptionMap `json:"tuning"`
}

func init() {
	pflag.Int("n", 0, "ruler order (number of marks)")
	pflag.Int("max-len", search.MaxLen, "largest ruler length to consider")
	pflag.Int("threads", 0, "worker threads per process (0 = all cpus)")
	pflag.Int("rank", 0, "process rank")
	pflag.Int("size", 1, "process count")
	pflag.String("hub", "127.0.0.1:19030", "collective hub address (listened on by rank 0)")
	pflag.Bool("best", false, "seed the bound from the ruler archive / known optima")
	pflag.Bool("greedy", true, "seed the bound with a greedy warm start")
	pflag.String("store", "", "leveldb ruler archive path")
	pflag.String("bench", "", "benchmark csv file to append to")
	pflag.String("report", "", "render the benchmark csv to this html file and exit")
	pflag.String("description", "", "benchmark description column")
	pflag.String("log-level", "info", "default log level")
	pflag.String("log-modules", "", "per-module level overrides, e.g. kernel=debug,cluster-*=trace")
	pflag.String("config", "", "json config file")
	pflag.Bool("version", false, "version info")

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		fmt.Println("bind flags error:", err)
	}
}

func VersionOnly() bool {
	return viper.GetBool("version")
}

// ParseConfig reads flags and the optional config file. Flags win over
// file values, file values over defaults.
func ParseConfig() (Config, error) {
	pflag.Parse()

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		viper.SetConfigType("json")
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Marks:       viper.GetInt("n"),
		MaxLen:      viper.GetInt("max-len"),
		Threads:     viper.GetInt("threads"),
		Rank:        viper.GetInt("rank"),
		Size:        viper.GetInt("size"),
		Hub:         viper.GetString("hub"),
		UseBest:     viper.GetBool("best"),
		Greedy:      viper.GetBool("greedy"),
		StorePath:   viper.GetString("store"),
		BenchFile:   viper.GetString("bench"),
		ReportFile:  viper.GetString("report"),
		Description: viper.GetString("description"),
		LogLevel:    viper.GetString("log-level"),
		LogModules:  viper.GetString("log-modules"),
		Tuning:      OptionMap(viper.GetStringMap("tuning")),
	}

	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.Tuning == nil {
		cfg.Tuning = OptionMap{}
	}
	return cfg, nil
}

// ModuleLevels parses the log-modules flag into (pattern, level) pairs,
// preserving order so later entries win.
func (c Config) ModuleLevels() [][2]string {
	var pairs [][2]string
	for _, spec := range strings.Split(c.LogModules, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		pairs = append(pairs, [2]string{parts[0], parts[1]})
	}
	return pairs
}

func (c Config) SyncInterval() int {
	return c.Tuning.GetInt("sync_interval", 0)
}

func (c Config) PrefixDepth() int {
	return c.Tuning.GetInt("prefix_depth", 0)
}

func (c Config) MirrorBreak() bool {
	return c.Tuning.GetBool("mirror_break", false)
}

func (c Config) ReportInterval() time.Duration {
	return c.Tuning.GetDuration("report_interval", 30*time.Second)
}

func (c Config) JoinTimeout() time.Duration {
	return c.Tuning.GetDuration("join_timeout", 60*time.Second)
}
