package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/recgo/internal/compress"
	"github.com/hupe1980/recgo/scoring"
)

// ErrCorrupt is returned when a factor file does not match its manifest.
var ErrCorrupt = errors.New("bundle: corrupt factor file")

// encodeFactors lays out entity biases, item biases (float64), then entity
// and item factors (float32), little-endian, as one compressed block.
func encodeFactors(p scoring.FactorizationParams, ct compress.Type) ([]byte, error) {
	n := 8*(len(p.EntityBias)+len(p.ItemBias)) + 4*(len(p.EntityFactors)+len(p.ItemFactors))
	raw := make([]byte, 0, n)
	for _, v := range p.EntityBias {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	for _, v := range p.ItemBias {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	for _, v := range p.EntityFactors {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	for _, v := range p.ItemFactors {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return compress.EncodeBlock(nil, raw, ct)
}

func decodeFactors(block []byte, ct compress.Type, numEntities, numItems, dim int, p *scoring.FactorizationParams) error {
	raw, err := compress.DecodeBlock(nil, block, ct)
	if err != nil {
		return err
	}
	want := 8*(numEntities+numItems) + 4*dim*(numEntities+numItems)
	if len(raw) != want {
		return fmt.Errorf("%w: %d bytes, want %d", ErrCorrupt, len(raw), want)
	}

	f64 := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw))
			raw = raw[8:]
		}
		return out
	}
	f32 := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw))
			raw = raw[4:]
		}
		return out
	}

	p.EntityBias = f64(numEntities)
	p.ItemBias = f64(numItems)
	p.EntityFactors = f32(numEntities * dim)
	p.ItemFactors = f32(numItems * dim)
	return nil
}
