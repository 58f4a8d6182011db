// Package event parses OpenTV title and summary sections into tagged
// record variants, then merges them into partial events keyed by
// (channel_id, event_id), invoking the Huffman decoder for text payloads.
package event

import (
	"encoding/binary"
	"time"

	"github.com/opentvepg/grabber/internal/huffman"
	"github.com/opentvepg/grabber/internal/partialstore"
)

// Role distinguishes which substream a section came from, matching the
// TITLE/SUMMARY split in the partial-event status mask.
type Role int

const (
	RoleTitle Role = iota
	RoleSummary
)

const (
	tagTitle       = 0xB5
	tagSummary     = 0xB9
	tagDescription = 0xBB
	tagSeriesLink  = 0xC1

	mjdEpochOffsetDays = 40587
	secondsPerDay      = 86400
)

// Record is the tagged-variant output of the first TLV parsing pass; text
// fields carry raw Huffman-encoded bytes, decoded only during merge.
type Record interface{ isRecord() }

// TitleRecord is tag 0xB5.
type TitleRecord struct {
	Start, Stop time.Time
	Category    byte
	RawText     []byte // absent (nil) when len < 7, i.e. no Huffman payload
}

func (TitleRecord) isRecord() {}

// SummaryRecord is tag 0xB9.
type SummaryRecord struct{ RawText []byte }

func (SummaryRecord) isRecord() {}

// DescriptionRecord is tag 0xBB.
type DescriptionRecord struct{ RawText []byte }

func (DescriptionRecord) isRecord() {}

// SeriesLinkRecord is tag 0xC1.
type SeriesLinkRecord struct{ SeriesLink uint16 }

func (SeriesLinkRecord) isRecord() {}

// EventBlock is one parsed event within a section, with its key and the
// records recognised inside it (unknown tags are skipped and never
// appear here).
type EventBlock struct {
	EventID uint16
	Records []Record
}

// ParseSection parses a title/summary section body (starting at the
// channel_id field, i.e. with the table header already consumed by the
// caller) into its channel id, base MJD-derived day offset, and the list
// of event blocks found. Malformed trailing bytes truncate the event list
// but do not invalidate already-parsed blocks.
func ParseSection(body []byte) (channelID uint16, baseUnix int64, events []EventBlock) {
	if len(body) < 7 {
		return 0, 0, nil
	}
	channelID = binary.BigEndian.Uint16(body[0:2])
	// body[2:5] are three skipped bytes.
	mjd := binary.BigEndian.Uint16(body[5:7])
	baseUnix = (int64(mjd) - mjdEpochOffsetDays) * secondsPerDay

	pos := 7
	for pos+4 <= len(body) {
		eventID := binary.BigEndian.Uint16(body[pos : pos+2])
		// payload_length is the low 12 bits of a 16-bit field; the mask
		// is applied before the shift, matching the spec's explicit
		// parenthesization: (buf[2]&0x0F)<<8 | buf[3].
		payloadLen := int(body[pos+2]&0x0F)<<8 | int(body[pos+3])
		pos += 4
		end := pos + payloadLen
		if end > len(body) {
			end = len(body)
		}
		events = append(events, EventBlock{
			EventID: eventID,
			Records: parseRecords(body[pos:end], baseUnix),
		})
		pos = end
	}
	return channelID, baseUnix, events
}

// parseRecords walks the TLV record stream of one event block. Each
// record's cursor advances by exactly len+2, per the length-TLV contract;
// a record whose declared length would run past the buffer truncates the
// walk without failing already-parsed records.
func parseRecords(d []byte, baseUnix int64) []Record {
	var out []Record
	pos := 0
	for pos+2 <= len(d) {
		tag := d[pos]
		rlen := int(d[pos+1])
		pos += 2
		if pos+rlen > len(d) {
			break
		}
		payload := d[pos : pos+rlen]
		pos += rlen

		switch tag {
		case tagTitle:
			out = append(out, parseTitleRecord(payload, baseUnix))
		case tagSummary:
			out = append(out, SummaryRecord{RawText: append([]byte(nil), payload...)})
		case tagDescription:
			out = append(out, DescriptionRecord{RawText: append([]byte(nil), payload...)})
		case tagSeriesLink:
			if len(payload) >= 2 {
				out = append(out, SeriesLinkRecord{SeriesLink: binary.BigEndian.Uint16(payload)})
			}
		}
	}
	return out
}

// parseTitleRecord decodes tag 0xB5: two 9-bit-quantum offsets, a category
// byte, two skipped bytes, then an optional Huffman payload. A record
// shorter than 7 bytes has no Huffman payload but still carries
// start/stop/category.
func parseTitleRecord(d []byte, baseUnix int64) TitleRecord {
	var rec TitleRecord
	if len(d) < 5 {
		return rec
	}
	startOffset := (uint32(d[0]) << 9) | (uint32(d[1]) << 1)
	durOffset := (uint32(d[2]) << 9) | (uint32(d[3]) << 1)
	rec.Category = d[4]
	rec.Start = time.Unix(baseUnix+int64(startOffset), 0).UTC()
	rec.Stop = time.Unix(baseUnix+int64(startOffset)+int64(durOffset), 0).UTC()
	if len(d) > 7 {
		rec.RawText = append([]byte(nil), d[7:]...)
	}
	return rec
}

// Merge decodes any Huffman text in ev's records (using dict) and folds
// the result into the partial event identified by (channelID, eventID) in
// store, applying first-writer-wins per field and updating the status
// mask for role. It returns the finished partial event and true if this
// merge completed the join (both TITLE and SUMMARY bits now set); in that
// case Merge has already removed it from store, and the caller is
// responsible for handing it to the EPG emitter.
func Merge(store *partialstore.Store, dict *huffman.Tree, channelID uint16, ev EventBlock, role Role) (partialstore.Partial, bool) {
	key := partialstore.Key{ChannelID: channelID, EventID: ev.EventID}
	p := store.LookupOrInsert(key)

	for _, rec := range ev.Records {
		switch r := rec.(type) {
		case TitleRecord:
			if p.Start.IsZero() {
				p.Start = r.Start
				p.Stop = r.Stop
				p.Category = r.Category
			}
			if p.Title == "" && len(r.RawText) > 0 {
				if text, ok := dict.Decode(r.RawText, maxTextOut); ok {
					p.Title = text
				}
			}
		case SummaryRecord:
			if p.Summary == "" {
				if text, ok := dict.Decode(r.RawText, maxTextOut); ok {
					p.Summary = text
				}
			}
		case DescriptionRecord:
			if p.Description == "" {
				if text, ok := dict.Decode(r.RawText, maxTextOut); ok {
					p.Description = text
				}
			}
		case SeriesLinkRecord:
			if p.SeriesLink == 0 {
				p.SeriesLink = r.SeriesLink
			}
		}
	}

	switch role {
	case RoleTitle:
		p.StatusMask |= partialstore.StatusTitle
	case RoleSummary:
		p.StatusMask |= partialstore.StatusSummary
	}

	store.Update(key, p)

	if p.StatusMask == (partialstore.StatusTitle | partialstore.StatusSummary) {
		store.Remove(key)
		return p, true
	}
	return p, false
}

// maxTextOut bounds Huffman-decoded title/summary/description text,
// enforcing invariant 5 (the decoder never writes beyond the caller's
// output budget) at the call site.
const maxTextOut = 4096
