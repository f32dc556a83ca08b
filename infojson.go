package main

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"rezid/tune"
)

// printInfoJSON dumps the tune descriptor as a JSON object, for
// consumption by playlist and song-length tooling.
func printInfoJSON(w io.Writer, path string, tn *tune.Tune) {
	var e jx.Encoder
	e.SetIdent(2)

	e.Obj(func(e *jx.Encoder) {
		e.Field("file", func(e *jx.Encoder) { e.Str(path) })
		e.Field("format", func(e *jx.Encoder) { e.Str(tn.Format) })
		e.Field("title", func(e *jx.Encoder) { e.Str(tn.InfoString(0)) })
		e.Field("author", func(e *jx.Encoder) { e.Str(tn.InfoString(1)) })
		e.Field("released", func(e *jx.Encoder) { e.Str(tn.InfoString(2)) })
		e.Field("songs", func(e *jx.Encoder) { e.Int(tn.Songs) })
		e.Field("startSong", func(e *jx.Encoder) { e.Int(tn.StartSong) })
		e.Field("loadAddr", func(e *jx.Encoder) { e.Int(int(tn.LoadAddr)) })
		e.Field("initAddr", func(e *jx.Encoder) { e.Int(int(tn.InitAddr)) })
		e.Field("playAddr", func(e *jx.Encoder) { e.Int(int(tn.PlayAddr)) })
		e.Field("size", func(e *jx.Encoder) { e.Int(len(tn.Data)) })
		e.Field("clock", func(e *jx.Encoder) { e.Str(clockName(tn.Clock)) })
		e.Field("sidChips", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := 0; i < 3; i++ {
					if base := tn.SidChipBase(i); base != 0 {
						e.Obj(func(e *jx.Encoder) {
							e.Field("base", func(e *jx.Encoder) { e.Int(int(base)) })
							e.Field("model", func(e *jx.Encoder) { e.Str(modelName(tn.SidModel(i))) })
						})
					}
				}
			})
		})
		e.Field("md5", func(e *jx.Encoder) { e.Str(fmt.Sprintf("%x", tn.MD5)) })
		e.Field("md5New", func(e *jx.Encoder) { e.Str(fmt.Sprintf("%x", tn.MD5New)) })
	})

	w.Write(e.Bytes())
	io.WriteString(w, "\n")
}

func clockName(c tune.Clock) string {
	switch c {
	case tune.ClockPAL:
		return "PAL"
	case tune.ClockNTSC:
		return "NTSC"
	case tune.ClockAny:
		return "ANY"
	}
	return "UNKNOWN"
}

func modelName(m tune.Model) string {
	switch m {
	case tune.Model6581:
		return "6581"
	case tune.Model8580:
		return "8580"
	case tune.ModelAny:
		return "ANY"
	}
	return "UNKNOWN"
}
