// Package bat decodes the OpenTV Bouquet Association Table, producing
// channel-id ↔ (tsid, sid) bindings for the EPG emitter to materialize as
// EPG channel objects.
package bat

import (
	"encoding/binary"

	"github.com/opentvepg/grabber/internal/svcmgr"
)

// descriptor tag carrying channel-number mappings. Tag 0xB2 ("logical
// channel alternate") exists in the wild but was never handled by the
// original decoder and is not handled here either.
const tagChannelMapping = 0xB1

const mappingRecordLen = 9

// Binding is one resolved channel-id ↔ service binding ready for the EPG
// emitter to upsert.
type Binding struct {
	ChannelID     uint16
	ChannelNumber uint16
	ServiceName   string
}

// Decode parses a full BAT section (starting at table_id) and returns
// every channel binding whose underlying broadcast service the lookup
// collaborator recognises.
//
// Layout (all big-endian):
//
//	offset 5–6 (low 12 bits): bouquet-descriptor-loop length → skip
//	then a transport-stream-loop-length field (standard BAT framing,
//	bounding the entries below), followed by entries of
//	(tsid, nid, ts-descriptor-loop) where each ts-descriptor-loop holds
//	(tag, len, payload) descriptors. Only tag 0xB1 is interpreted; its
//	payload is 2 skipped bytes followed by repeating 9-byte records:
//	u16 service_id, u8 (skipped), u16 channel_id, u16 channel_number,
//	2 bytes (skipped).
func Decode(body []byte, lookup svcmgr.Lookup) []Binding {
	if len(body) < 9 {
		return nil
	}
	pos := 5
	bouquetDescLen := int(binary.BigEndian.Uint16(body[pos:pos+2]) & 0x0FFF)
	pos += 2 + bouquetDescLen
	if pos+2 > len(body) {
		return nil
	}
	tsLoopLen := int(binary.BigEndian.Uint16(body[pos:pos+2]) & 0x0FFF)
	pos += 2
	end := pos + tsLoopLen
	if end > len(body) {
		end = len(body)
	}

	var out []Binding
	for pos+6 <= end {
		tsid := binary.BigEndian.Uint16(body[pos : pos+2])
		pos += 2
		// skip original_network_id, present in the original record but
		// not needed beyond tsid+sid for service lookup.
		pos += 2
		descLoopLen := int(binary.BigEndian.Uint16(body[pos:pos+2]) & 0x0FFF)
		pos += 2
		descEnd := pos + descLoopLen
		if descEnd > end {
			descEnd = end
		}

		for pos+2 <= descEnd {
			tag := body[pos]
			dLen := int(body[pos+1])
			pos += 2
			if pos+dLen > descEnd {
				break
			}
			if tag == tagChannelMapping {
				out = append(out, decodeChannelMappings(body[pos:pos+dLen], tsid, lookup)...)
			}
			pos += dLen
		}
		pos = descEnd
	}
	return out
}

func decodeChannelMappings(d []byte, tsid uint16, lookup svcmgr.Lookup) []Binding {
	if len(d) < 2 {
		return nil
	}
	pos := 2 // skip 2 leading bytes before the repeating record block
	var out []Binding
	for pos+mappingRecordLen <= len(d) {
		rec := d[pos : pos+mappingRecordLen]
		pos += mappingRecordLen

		serviceID := binary.BigEndian.Uint16(rec[0:2])
		// rec[2] is skipped (unused byte in the original record layout).
		channelID := binary.BigEndian.Uint16(rec[3:5])
		channelNumber := binary.BigEndian.Uint16(rec[5:7])
		// rec[7:9] is skipped (unused trailer).

		svc, ok := lookup.FindService(tsid, serviceID)
		if !ok {
			continue
		}
		ch, ok := svc.Channel()
		if !ok || ch.Name() == "" {
			continue
		}
		out = append(out, Binding{
			ChannelID:     channelID,
			ChannelNumber: channelNumber,
			ServiceName:   ch.Name(),
		})
	}
	return out
}
