package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tebeka/atexit"
	"gopkg.in/urfave/cli.v1"

	"github.com/handegar/aps2c/compiler"
	"github.com/handegar/aps2c/debugger"
	"github.com/handegar/aps2c/disasm"
	"github.com/handegar/aps2c/reader"
	"github.com/handegar/aps2c/sequence"
	"github.com/handegar/aps2c/settings"
	"github.com/handegar/aps2c/utils"
	"github.com/handegar/aps2c/writer"
)

var (
	settingsFlag = cli.StringFlag{
		Name:  "settings",
		Usage: "TOML settings file",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "Output container",
		Value: settings.OutFilename,
	}
	wavFlag = cli.StringFlag{
		Name:  "wav",
		Usage: "Write a WAV preview of the waveform memory",
	}
	dumpLibraryFlag = cli.BoolFlag{
		Name:  "dump-library",
		Usage: "Print the waveform and marker library",
	}
	printCodeFlag = cli.BoolFlag{
		Name:  "print-code",
		Usage: "Print the compiled program",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "Debug logging",
	}
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "Log every scheduled element",
	}
	debugFlag = cli.BoolFlag{
		Name:  "print-debug",
		Usage: "Include raw words in listings",
	}
	tableFlag = cli.BoolFlag{
		Name:  "table",
		Usage: "Print the program as a table",
	}
	stepFlag = cli.BoolFlag{
		Name:  "step",
		Usage: "Step through the program one instruction at a time",
	}
)

var startTime = time.Now()

func setupLogging(ctx *cli.Context) {
	level := slog.LevelInfo
	if ctx.GlobalBool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	if ctx.GlobalBool(traceFlag.Name) {
		level = utils.LevelTrace
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	settings.PrintDebug = ctx.GlobalBool(debugFlag.Name)
}

func loadSettings(ctx *cli.Context) error {
	settings.SettingsFile = ctx.GlobalString(settingsFlag.Name)
	if settings.SettingsFile == "" {
		return nil
	}
	if err := settings.LoadFile(settings.SettingsFile); err != nil {
		return err
	}
	slog.Debug("Settings loaded", "file", settings.SettingsFile)
	return nil
}

// Every command takes exactly one file argument
func inputFile(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("expected one input file, got %d", ctx.NArg())
	}
	return ctx.Args().First(), nil
}

func compileCmd(ctx *cli.Context) error {
	var err error
	if settings.InFilename, err = inputFile(ctx); err != nil {
		return err
	}
	settings.OutFilename = ctx.String(outFlag.Name)
	settings.OutputWav = ctx.String(wavFlag.Name)
	settings.DumpLibrary = ctx.Bool(dumpLibraryFlag.Name)
	settings.PrintCode = ctx.Bool(printCodeFlag.Name)

	seq, cm, err := sequence.Load(settings.InFilename)
	if err != nil {
		return err
	}

	c := compiler.New().WithWaveformCache(settings.WaveformCacheSize)
	prog, err := c.Compile(seq, cm)
	if err != nil {
		return err
	}

	if err := writer.SaveContainer(settings.OutFilename, prog.Container()); err != nil {
		return err
	}
	color.Green("* Wrote %d instructions and %d samples to '%s'",
		len(prog.Instructions), prog.Library.Memory.Len(), settings.OutFilename)

	if settings.OutputWav != "" {
		frames := writer.MemoryToFrames(prog.Library.Memory.I, prog.Library.Memory.Q)
		if err := writer.SaveAsWAV(settings.OutputWav, settings.PreviewSampleRate, frames); err != nil {
			return err
		}
		color.Green("* Wrote preview to '%s'", settings.OutputWav)
	}

	if settings.PrintCode {
		disasm.PrintCodeListing(disasm.DecodeOps(prog.Instructions))
	}
	if settings.DumpLibrary {
		prog.Library.Dump(os.Stdout)
	}

	prog.Library.Stats.Print()
	printHistogram(prog)
	return nil
}

func printHistogram(prog *compiler.Program) {
	color.Cyan("Instructions:")
	for _, oc := range prog.Histogram() {
		fmt.Printf("  %-12s %d\n", oc.Name, oc.Count)
	}
}

func disasmCmd(ctx *cli.Context) error {
	filename, err := inputFile(ctx)
	if err != nil {
		return err
	}
	c, err := reader.ReadContainer(filename)
	if err != nil {
		return err
	}

	ops := disasm.DecodeOps(c.Instructions)
	switch {
	case ctx.Bool(stepFlag.Name):
		return disasm.StepListing(ops)
	case ctx.Bool(tableFlag.Name):
		fmt.Println(disasm.Table(ops))
	default:
		disasm.PrintCodeListing(ops)
	}
	return nil
}

func inspectCmd(ctx *cli.Context) error {
	filename, err := inputFile(ctx)
	if err != nil {
		return err
	}
	c, err := reader.ReadContainer(filename)
	if err != nil {
		return err
	}
	return debugger.Run(c)
}

func wavCmd(ctx *cli.Context) error {
	filename, err := inputFile(ctx)
	if err != nil {
		return err
	}
	out := ctx.String(outFlag.Name)
	if out == "" {
		return fmt.Errorf("no output file, use '--out'")
	}

	c, err := reader.ReadContainer(filename)
	if err != nil {
		return err
	}
	frames := writer.MemoryToFrames(c.WaveformsI, c.WaveformsQ)
	if err := writer.SaveAsWAV(out, settings.PreviewSampleRate, frames); err != nil {
		return err
	}
	color.Green("* Wrote %d frames to '%s'", len(frames), out)
	return nil
}

func settingsCmd(ctx *cli.Context) error {
	return settings.Dump(os.Stdout)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "aps2c"
	app.Usage = "APS2 sequence compiler"
	app.Version = settings.Version
	app.Flags = []cli.Flag{settingsFlag, verboseFlag, traceFlag, debugFlag}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return loadSettings(ctx)
	}

	app.Commands = []cli.Command{
		{
			Name:      "compile",
			Usage:     "Compile a sequence description into a container",
			ArgsUsage: "<sequence.yaml>",
			Flags:     []cli.Flag{outFlag, wavFlag, dumpLibraryFlag, printCodeFlag},
			Action:    compileCmd,
		},
		{
			Name:      "disasm",
			Usage:     "Print the instructions of a container",
			ArgsUsage: "<program.aps2>",
			Flags:     []cli.Flag{tableFlag, stepFlag},
			Action:    disasmCmd,
		},
		{
			Name:      "inspect",
			Usage:     "Browse a container interactively",
			ArgsUsage: "<program.aps2>",
			Action:    inspectCmd,
		},
		{
			Name:      "wav",
			Usage:     "Write the waveform memory of a container as a WAV file",
			ArgsUsage: "<program.aps2>",
			Flags:     []cli.Flag{cli.StringFlag{Name: outFlag.Name, Usage: "Output WAV file"}},
			Action:    wavCmd,
		},
		{
			Name:   "settings",
			Usage:  "Show the active settings as TOML",
			Action: settingsCmd,
		},
	}
	return app
}

func main() {
	fmt.Fprintf(os.Stderr, "* APS2 sequence compiler v%s\n", settings.Version)

	atexit.Register(func() {
		slog.Debug("Done", "elapsed", time.Since(startTime))
	})

	if err := newApp().Run(os.Args); err != nil {
		color.Red("ERROR: %s", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
