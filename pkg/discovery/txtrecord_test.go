package discovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbus-station/cancmd-go/pkg/discovery"
)

func TestEncodeDecodeTXT(t *testing.T) {
	info := &discovery.Info{
		NodeNumber:     65534,
		CANID:          126,
		CommandStation: 0,
		Version:        "4.1.107",
		Name:           "layout",
	}

	txt := discovery.EncodeTXT(info)
	assert.Equal(t, "65534", txt[discovery.TXTKeyNodeNumber])
	assert.Equal(t, "126", txt[discovery.TXTKeyCANID])
	assert.Equal(t, "layout", txt[discovery.TXTKeyName])

	got, err := discovery.DecodeTXT(discovery.StringsToTXTRecords(discovery.TXTRecordsToStrings(txt)))
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestEncodeTXTOmitsEmptyName(t *testing.T) {
	txt := discovery.EncodeTXT(&discovery.Info{NodeNumber: 1, CANID: 1, Version: "1.0.0"})
	_, ok := txt[discovery.TXTKeyName]
	assert.False(t, ok)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  discovery.TXTRecordMap
		want error
	}{
		{"missing nn", discovery.TXTRecordMap{"canid": "1", "ver": "1"}, discovery.ErrMissingRequired},
		{"bad nn", discovery.TXTRecordMap{"nn": "x", "canid": "1", "ver": "1"}, discovery.ErrInvalidTXTRecord},
		{"nn overflow", discovery.TXTRecordMap{"nn": "70000", "canid": "1", "ver": "1"}, discovery.ErrInvalidTXTRecord},
		{"missing canid", discovery.TXTRecordMap{"nn": "1", "ver": "1"}, discovery.ErrMissingRequired},
		{"canid zero", discovery.TXTRecordMap{"nn": "1", "canid": "0", "ver": "1"}, discovery.ErrInvalidTXTRecord},
		{"canid high", discovery.TXTRecordMap{"nn": "1", "canid": "128", "ver": "1"}, discovery.ErrInvalidTXTRecord},
		{"bad cs", discovery.TXTRecordMap{"nn": "1", "canid": "1", "cs": "-", "ver": "1"}, discovery.ErrInvalidTXTRecord},
		{"missing ver", discovery.TXTRecordMap{"nn": "1", "canid": "1"}, discovery.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := discovery.DecodeTXT(tt.txt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTXTRecordsToStringsSorted(t *testing.T) {
	strs := discovery.TXTRecordsToStrings(discovery.TXTRecordMap{"ver": "1", "canid": "2", "nn": "3"})
	assert.Equal(t, []string{"canid=2", "nn=3", "ver=1"}, strs)
}

func TestStringsToTXTRecordsFlag(t *testing.T) {
	txt := discovery.StringsToTXTRecords([]string{"flag", "k=v=w", ""})
	assert.Equal(t, discovery.TXTRecordMap{"flag": "", "k": "v=w"}, txt)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "CANCMD-65534", (&discovery.Info{NodeNumber: 65534}).InstanceName())
	assert.Equal(t, "shed", (&discovery.Info{Instance: "shed", NodeNumber: 1}).InstanceName())

	assert.Error(t, discovery.ValidateInstanceName(""))
	long := make([]byte, discovery.MaxInstanceNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, discovery.ValidateInstanceName(string(long)), discovery.ErrInstanceNameTooLong)
	assert.NoError(t, discovery.ValidateInstanceName("CANCMD-1"))
}
