package log

import (
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

const zfieldsCap = 16

// EntryZ is a log entry builder that defers all field formatting to End(),
// so that a discarded entry allocates nothing. Typical use:
//
//	log.ModSID.InfoZ("write").Hex8("reg", reg).Hex8("val", val).End()
type EntryZ struct {
	lvl   Level
	mod   Module
	msg   string
	zfbuf [zfieldsCap]ZField
	zfidx int
}

var entryZPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryZPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (e *EntryZ) field() *ZField {
	if e == nil || e.zfidx == zfieldsCap {
		return nil
	}
	f := &e.zfbuf[e.zfidx]
	e.zfidx++
	return f
}

func (e *EntryZ) Bool(key string, v bool) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Boolean = FieldTypeBool, key, v
	}
	return e
}

func (e *EntryZ) String(key, v string) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.String = FieldTypeString, key, v
	}
	return e
}

func (e *EntryZ) Int(key string, v int64) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeInt, key, uint64(v)
	}
	return e
}

func (e *EntryZ) Uint(key string, v uint64) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeUint, key, v
	}
	return e
}

func (e *EntryZ) Uint8(key string, v uint8) *EntryZ  { return e.Uint(key, uint64(v)) }
func (e *EntryZ) Uint16(key string, v uint16) *EntryZ { return e.Uint(key, uint64(v)) }
func (e *EntryZ) Uint32(key string, v uint32) *EntryZ { return e.Uint(key, uint64(v)) }

func (e *EntryZ) Hex8(key string, v uint8) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeHex8, key, uint64(v)
	}
	return e
}

func (e *EntryZ) Hex16(key string, v uint16) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeHex16, key, uint64(v)
	}
	return e
}

func (e *EntryZ) Hex24(key string, v uint32) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeHex24, key, uint64(v&0xffffff)
	}
	return e
}

func (e *EntryZ) Hex32(key string, v uint32) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Integer = FieldTypeHex32, key, uint64(v)
	}
	return e
}

func (e *EntryZ) Error(key string, v error) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Error = FieldTypeError, key, v
	}
	return e
}

func (e *EntryZ) Duration(key string, v time.Duration) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Duration = FieldTypeDuration, key, v
	}
	return e
}

func (e *EntryZ) Stringer(key string, v any) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Interface = FieldTypeStringer, key, v
	}
	return e
}

func (e *EntryZ) Blob(key string, v []byte) *EntryZ {
	if f := e.field(); f != nil {
		f.Type, f.Key, f.Blob = FieldTypeBlob, key, v
	}
	return e
}

// End formats the accumulated fields and emits the entry.
func (e *EntryZ) End() {
	if e == nil {
		return
	}

	fields := make(logrus.Fields, e.zfidx+1)
	fields["_mod"] = modNames[e.mod]
	for i := range e.zfbuf[:e.zfidx] {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}

	entry := logrus.StandardLogger().WithFields(fields)
	switch e.lvl {
	case DebugLevel:
		entry.Debug(e.msg)
	case InfoLevel:
		entry.Info(e.msg)
	case WarnLevel:
		entry.Warn(e.msg)
	case ErrorLevel:
		entry.Error(e.msg)
	case FatalLevel:
		entry.Fatal(e.msg)
	case PanicLevel:
		entry.Panic(e.msg)
	}

	entryZPool.Put(e)
}
