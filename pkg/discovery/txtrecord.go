package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for a bridge advertisement.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyNodeNumber] = formatUint(uint64(info.NodeNumber))
	txt[TXTKeyCANID] = formatUint(uint64(info.CANID))
	txt[TXTKeyCommandStation] = formatUint(uint64(info.CommandStation))
	txt[TXTKeyVersion] = info.Version

	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}

	return txt
}

// DecodeTXT parses TXT records from a bridge advertisement.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	info := &Info{}

	nn, err := requireUint(txt, TXTKeyNodeNumber, 16)
	if err != nil {
		return nil, err
	}
	info.NodeNumber = uint16(nn)

	canID, err := requireUint(txt, TXTKeyCANID, 8)
	if err != nil {
		return nil, err
	}
	if canID == 0 || canID > MaxCANID {
		return nil, fmt.Errorf("%w: %s=%d", ErrInvalidTXTRecord, TXTKeyCANID, canID)
	}
	info.CANID = uint8(canID)

	// Older firmware omits the command station number.
	if _, ok := txt[TXTKeyCommandStation]; ok {
		cs, err := requireUint(txt, TXTKeyCommandStation, 8)
		if err != nil {
			return nil, err
		}
		info.CommandStation = uint8(cs)
	}

	ver, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	info.Version = ver
	info.Name = txt[TXTKeyName]

	return info, nil
}

func requireUint(txt TXTRecordMap, key string, bits int) (uint64, error) {
	s, ok := txt[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequired, key)
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, key, s)
	}
	return v, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key so repeated announcements are identical.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return fmt.Errorf("%w: %d bytes", ErrInstanceNameTooLong, len(name))
	}
	return nil
}
