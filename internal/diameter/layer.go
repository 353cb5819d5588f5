package diameter

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/dissect/internal/core/buffer"
)

var LayerTypeDiameter = gopacket.RegisterLayerType(
	1868,
	gopacket.LayerTypeMetadata{
		Name:    "Diameter",
		Decoder: gopacket.DecodeFunc(decodeDiameterLayer),
	},
)

// Layer exposes the Diameter message header to gopacket pipelines. The AVP
// body is left in Payload for Decoder.DecodeSequence.
type Layer struct {
	layers.BaseLayer
	Header
}

func (l *Layer) LayerType() gopacket.LayerType {
	return LayerTypeDiameter
}

func (l *Layer) CanDecode() gopacket.LayerClass {
	return LayerTypeDiameter
}

func (l *Layer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	h, err := DecodeHeader(buffer.New(data))
	if err != nil {
		if len(data) < MessageHeaderLen {
			df.SetTruncated()
		}
		return fmt.Errorf("diameter layer: %w", err)
	}
	end := h.Length
	if end > len(data) {
		df.SetTruncated()
		end = len(data)
	}
	l.Header = h
	l.Contents = data[:MessageHeaderLen]
	l.Payload = data[MessageHeaderLen:end]
	return nil
}

func decodeDiameterLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	return p.NextDecoder(l.NextLayerType())
}
