package main

import (
	"fmt"
	"os"

	"rezid/player"
	"rezid/tune"
)

const version = "0.3.0"

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Println("rezid", version)

	case infoMode:
		data, err := os.ReadFile(cli.Info.TunePath)
		checkf(err, "failed to read tune")
		tn, err := tune.Load(cli.Info.TunePath, data)
		checkf(err, "failed to load tune")

		if cli.Info.JSON {
			printInfoJSON(os.Stdout, cli.Info.TunePath, tn)
		} else {
			printInfo(os.Stdout, cli.Info.TunePath, tn)
		}

	case playMode:
		data, err := os.ReadFile(cli.Play.TunePath)
		checkf(err, "failed to read tune")
		tn, err := tune.Load(cli.Play.TunePath, data)
		checkf(err, "failed to load tune")

		runPlayer(&cli.Play, tn)
	}
}

func runPlayer(opts *Play, tn *tune.Tune) {
	cfg := player.LoadConfigOrDefault()

	if opts.Model != "" {
		cfg.ForceSidModel = true
		cfg.DefaultSidModel = player.SID6581
		if opts.Model == "8580" {
			cfg.DefaultSidModel = player.SID8580
		}
	}
	if opts.NTSC {
		cfg.ForceC64Model = true
		cfg.DefaultC64Model = player.C64NTSC
	}
	cfg.Playback = player.Stereo
	if opts.Mono {
		cfg.Playback = player.Mono
	}

	p := player.New()
	loadRoms(p, opts)

	checkf(p.Config(cfg), "bad configuration")

	if opts.Trace != nil {
		p.SetTraceOutput(opts.Trace)
		defer opts.Trace.Close()
	}

	checkf(p.Load(tn), "failed to start tune")
	if opts.Song != 0 {
		p.SelectSong(opts.Song)
	}
	if opts.Fast != 100 {
		checkf(p.FastForward(opts.Fast), "bad fast forward factor")
	}

	info := p.Info()
	printInfo(os.Stderr, opts.TunePath, tn)
	fmt.Fprintf(os.Stderr, "Speed    : %s\n", info.SpeedString)
	fmt.Fprintf(os.Stderr, "Driver   : $%04X-$%04X\n", info.DriverAddr, info.DriverAddr+info.DriverLength-1)

	checkf(playAudio(p, &cfg), "audio playback failed")
}

func loadRoms(p *player.Player, opts *Play) {
	load := func(path string) []uint8 {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		checkf(err, "failed to read ROM %s", path)
		return data
	}
	p.SetRoms(load(opts.Kernal), load(opts.Basic), load(opts.Chargen))
}

func printInfo(w *os.File, path string, tn *tune.Tune) {
	fmt.Fprintf(w, "File     : %s\n", path)
	fmt.Fprintf(w, "Format   : %s\n", tn.Format)
	if s := tn.InfoString(0); s != "" {
		fmt.Fprintf(w, "Title    : %s\n", s)
	}
	if s := tn.InfoString(1); s != "" {
		fmt.Fprintf(w, "Author   : %s\n", s)
	}
	if s := tn.InfoString(2); s != "" {
		fmt.Fprintf(w, "Released : %s\n", s)
	}
	fmt.Fprintf(w, "Songs    : %d (start %d)\n", tn.Songs, tn.StartSong)
	fmt.Fprintf(w, "Load     : $%04X-$%04X\n", tn.LoadAddr, int(tn.LoadAddr)+len(tn.Data)-1)
	fmt.Fprintf(w, "Init     : $%04X\n", tn.InitAddr)
	fmt.Fprintf(w, "Play     : $%04X\n", tn.PlayAddr)
	fmt.Fprintf(w, "MD5      : %x\n", tn.MD5)
}
