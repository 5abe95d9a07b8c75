package msgs

import (
	"github.com/golang/protobuf/proto"
)

// Type IDs of the bridge messages.
const (
	SampleTypeID     = TypeIDKindEvent | 0x00010001
	LinkStatusTypeID = TypeIDKindEvent | 0x00010002
)

// Sample is a sensor sample relayed by the Home station.
type Sample struct {
	Station   string   `protobuf:"bytes,1,opt,name=station,proto3" json:"station,omitempty"`
	Pt        []uint32 `protobuf:"varint,2,rep,packed,name=pt,proto3" json:"pt,omitempty"`
	LoadCell  uint32   `protobuf:"varint,3,opt,name=load_cell,json=loadCell,proto3" json:"load_cell,omitempty"`
	Timestamp uint32   `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *Sample) Reset()         { *m = Sample{} }
func (m *Sample) String() string { return proto.CompactTextString(m) }
func (*Sample) ProtoMessage()    {}

// TypeID implements Message.
func (*Sample) TypeID() uint32 { return SampleTypeID }

// LinkStatus reports the receive side of the radio link.
type LinkStatus struct {
	Station          string `protobuf:"bytes,1,opt,name=station,proto3" json:"station,omitempty"`
	PacketsReceived  uint64 `protobuf:"varint,2,opt,name=packets_received,json=packetsReceived,proto3" json:"packets_received,omitempty"`
	PacketsLost      uint64 `protobuf:"varint,3,opt,name=packets_lost,json=packetsLost,proto3" json:"packets_lost,omitempty"`
	SamplesForwarded uint64 `protobuf:"varint,4,opt,name=samples_forwarded,json=samplesForwarded,proto3" json:"samples_forwarded,omitempty"`
	SizeMismatches   uint64 `protobuf:"varint,5,opt,name=size_mismatches,json=sizeMismatches,proto3" json:"size_mismatches,omitempty"`
	Rssi             int32  `protobuf:"zigzag32,6,opt,name=rssi,proto3" json:"rssi,omitempty"`
	Snr              int32  `protobuf:"zigzag32,7,opt,name=snr,proto3" json:"snr,omitempty"`
}

func (m *LinkStatus) Reset()         { *m = LinkStatus{} }
func (m *LinkStatus) String() string { return proto.CompactTextString(m) }
func (*LinkStatus) ProtoMessage()    {}

// TypeID implements Message.
func (*LinkStatus) TypeID() uint32 { return LinkStatusTypeID }
