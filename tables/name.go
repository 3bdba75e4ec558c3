package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/otread"
	"github.com/npillmayer/otcodec/schema"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var nameRecordSchema = &schema.Table{
	Name: "nameRecord",
	Fields: []schema.Field{
		schema.U16("platformID"),
		schema.U16("encodingID"),
		schema.U16("languageID"),
		schema.U16("nameID"),
		schema.U16("length"),
		schema.U16("stringOffset"),
	},
}

var nameSchema = &schema.Table{
	Name: "name",
	Tag:  otcodec.T("name"),
	Fields: []schema.Field{
		schema.U16("version", schema.Const(0)),
		schema.U16("count", schema.ComputedCount("nameRecords")),
		schema.U16("storageOffset", schema.ComputedDataOffset("nameRecords")),
		schema.Array("nameRecords", schema.RecordElem(nameRecordSchema),
			schema.CountIn("count")),
		schema.RemainderBytes("storage"),
	},
}

// Name is the codec for the naming table. The string storage area
// trails the record array; storageOffset and count are derived on
// write, never caller-set.
var Name = schema.MustCompile(nameSchema)

// NameRecord is the codec for one naming-table record, for building
// the record array directly.
var NameRecord = schema.MustCompile(nameRecordSchema)

// Platform identifiers of name records.
const (
	PlatformUnicode   = 0
	PlatformMacintosh = 1
	PlatformWindows   = 3
)

// NameEntry is a decoded naming-table record.
type NameEntry struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// DecodeNameRecord extracts and decodes the string of one record of a
// parsed 'name' table. Unicode and Windows platform strings are
// UTF-16BE, Macintosh strings are Mac Roman; other platforms decode as
// Mac Roman, which at least keeps ASCII intact.
func DecodeNameRecord(name otread.TableRef, rec otread.TableRef) (NameEntry, error) {
	var e NameEntry
	var err error
	if e.PlatformID, err = rec.U16("platformID"); err != nil {
		return e, err
	}
	if e.EncodingID, err = rec.U16("encodingID"); err != nil {
		return e, err
	}
	if e.LanguageID, err = rec.U16("languageID"); err != nil {
		return e, err
	}
	if e.NameID, err = rec.U16("nameID"); err != nil {
		return e, err
	}
	length, err := rec.U16("length")
	if err != nil {
		return e, err
	}
	strOffset, err := rec.U16("stringOffset")
	if err != nil {
		return e, err
	}
	storage, err := name.Array("storage")
	if err != nil {
		return e, err
	}
	raw := storage.Raw()
	if int(strOffset)+int(length) > len(raw) {
		return e, &otread.Error{Kind: otread.ErrOutOfBounds, Table: "name", Field: "storage"}
	}
	e.Value, err = decodeNameString(e.PlatformID, raw[strOffset:strOffset+length])
	return e, err
}

func decodeNameString(platformID uint16, b []byte) (string, error) {
	switch platformID {
	case PlatformUnicode, PlatformWindows:
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		s, err := dec.Bytes(b)
		if err != nil {
			return "", err
		}
		return string(s), nil
	default:
		s, err := charmap.Macintosh.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(s), nil
	}
}

// Names decodes all records of a parsed 'name' table.
func Names(name otread.TableRef) ([]NameEntry, error) {
	recs, err := name.Array("nameRecords")
	if err != nil {
		return nil, err
	}
	entries := make([]NameEntry, 0, recs.Len())
	for i := 0; i < recs.Len(); i++ {
		rec, err := recs.Record(i)
		if err != nil {
			return nil, err
		}
		e, err := DecodeNameRecord(name, rec)
		if err != nil {
			tracer().Infof("name record %d undecodable: %v", i, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
