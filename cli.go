package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"rezid/emu/log"
)

type mode byte

const (
	playMode mode = iota // play a tune
	infoMode             // show tune infos
	versionMode          // show version
)

type (
	CLI struct {
		Play    Play    `cmd:"" help:"Play a SID tune. (default command)" default:"true"`
		Info    Info    `cmd:"" help:"Show tune infos."`
		Version Version `cmd:"" help:"Show rezid version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Play struct {
		TunePath string `arg:"" name:"/path/to/tune" help:"${tunepath_help}" required:"true" type:"existingfile"`

		Song    int      `name:"song" help:"Song number to play (0 = start song)." default:"0"`
		Model   string   `name:"model" help:"Force SID model: 6581 or 8580." enum:",6581,8580" default:""`
		NTSC    bool     `name:"ntsc" help:"Force NTSC machine."`
		Mono    bool     `name:"mono" help:"Downmix to mono."`
		Fast    int      `name:"fast" help:"Fast forward percentage (100-3200)." default:"100"`
		Trace   *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		Kernal  string   `name:"kernal" help:"Kernal ROM image." type:"existingfile"`
		Basic   string   `name:"basic" help:"BASIC ROM image." type:"existingfile"`
		Chargen string   `name:"chargen" help:"Character ROM image." type:"existingfile"`
	}

	Info struct {
		TunePath string `arg:"" name:"/path/to/tune" type:"existingfile"`

		JSON bool `name:"json" help:"Emit machine readable JSON."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"tunepath_help": "Play the tune on the default audio device.",
	"log_help":      "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("rezid"),
		kong.Description("Cycle-accurate C64 SID tune player."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch {
	case strings.HasPrefix(ctx.Command(), "info"):
		cfg.mode = infoMode
	case ctx.Command() == "version":
		cfg.mode = versionMode
	default:
		cfg.mode = playMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "play") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module
// mask. Implements the kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser writing to
// that file. Implements the kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
