//go:build !nogpu

package native

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/backend"
	"github.com/balarayen/speedy-vision/wire"
)

const (
	workgroupSize = 64
	gpuWaitLimit  = 5 * time.Second
)

// EncodeKeypoints uploads the corner mask and dispatches the skip-offset
// and fill passes. One command encoder carries the whole schedule; the
// implicit storage barriers between compute passes order the rounds.
func (e *Encoder) EncodeKeypoints(mask *speedy.Texture, descriptorSize, extraSize int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return backend.ErrEncoderClosed
	}
	if !e.initialized || e.length == 0 {
		return backend.ErrNotInitialized
	}

	texels := mask.Width() * mask.Height()
	maskWords := packMaskForGPU(mask)
	slots := e.length * e.length / wire.PixelsPerRecord(descriptorSize, extraSize)
	strideWords := wire.Stride(descriptorSize, extraSize) / 4

	cfg := [configWords]uint32{
		uint32(mask.Width()),
		uint32(mask.Height()),
		uint32(slots),
		uint32(strideWords),
		uint32(e.cfg.MaxIterations),
		0, 0, 0,
	}

	maskBuf, skipBuf, configBuf, bindGroup, err := e.createFrameBindings(maskWords, uint64(texels*4), cfg)
	if err != nil {
		return err
	}
	defer e.destroyFrameBindings(maskBuf, skipBuf, configBuf, bindGroup)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "kp_encode"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("kp_encode_frame"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	texelGroups := dispatchGroups(texels)
	runPass(encoder, e.initSkips, bindGroup, texelGroups)
	rounds := e.cfg.LongSkipPasses * e.cfg.MaxIterations
	for r := 0; r < rounds; r++ {
		runPass(encoder, e.refineSkips, bindGroup, texelGroups)
	}
	runPass(encoder, e.encode, bindGroup, dispatchGroups(slots))

	return e.submitAndWait(encoder)
}

// UploadKeypoints materializes packed upload floats into the encoder
// texture through the upload pass.
func (e *Encoder) UploadKeypoints(packed []float32, count, descriptorSize, extraSize int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return backend.ErrEncoderClosed
	}
	if !e.initialized || e.length == 0 {
		return backend.ErrNotInitialized
	}
	if len(packed) < count*wire.UploadFloatsPerKeypoint {
		return fmt.Errorf("%w: %d floats for %d keypoints",
			backend.ErrTransferFailed, len(packed), count)
	}

	words := make([]byte, len(packed)*4)
	for i, f := range packed {
		binary.LittleEndian.PutUint32(words[i*4:], math.Float32bits(f))
	}
	slots := e.length * e.length / wire.PixelsPerRecord(descriptorSize, extraSize)
	strideWords := wire.Stride(descriptorSize, extraSize) / 4

	cfg := [configWords]uint32{
		0, 0,
		uint32(slots),
		uint32(strideWords),
		uint32(e.cfg.MaxIterations),
		uint32(count),
		0, 0,
	}

	// The skip buffer is unused by the upload pass but the layout still
	// binds it; a minimal placeholder satisfies the binding.
	maskBuf, skipBuf, configBuf, bindGroup, err := e.createFrameBindings(words, 4, cfg)
	if err != nil {
		return err
	}
	defer e.destroyFrameBindings(maskBuf, skipBuf, configBuf, bindGroup)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "kp_upload"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("kp_upload_frame"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	runPass(encoder, e.upload, bindGroup, dispatchGroups(slots))

	return e.submitAndWait(encoder)
}

// ReadEncoded copies the encoder buffer to the staging buffer and reads
// it back. Buffered reads return the previous frame's page and capture
// the current frame for the next call.
func (e *Encoder) ReadEncoded(ctx context.Context, buffered bool) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, backend.ErrEncoderClosed
	}
	if !e.initialized || e.length == 0 {
		return nil, backend.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrTransferFailed, err)
	}

	size := uint64(e.length * e.length * wire.BytesPerPixel)
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "kp_readback"})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("kp_readback"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(e.encodedBuf, e.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if err := e.submitAndWait(encoder); err != nil {
		return nil, err
	}

	snapshot := make([]byte, size)
	if err := e.queue.ReadBuffer(e.stagingBuf, 0, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrTransferFailed, err)
	}

	if !buffered {
		e.page = nil
		e.hasPage = false
		return snapshot, nil
	}
	if !e.hasPage {
		e.page = snapshot
		e.hasPage = true
		return snapshot, nil
	}
	out := e.page
	e.page = snapshot
	return out, nil
}

func (e *Encoder) createFrameBindings(input []byte, skipSize uint64, cfg [configWords]uint32) (maskBuf, skipBuf, configBuf hal.Buffer, bindGroup hal.BindGroup, err error) {
	cfgBytes := make([]byte, configWords*4)
	for i, w := range cfg {
		binary.LittleEndian.PutUint32(cfgBytes[i*4:], w)
	}

	configBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kp_config", Size: uint64(len(cfgBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("native: create config buffer: %w", err)
	}
	maskBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kp_input", Size: uint64(len(input)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		e.device.DestroyBuffer(configBuf)
		return nil, nil, nil, nil, fmt.Errorf("native: create input buffer: %w", err)
	}
	skipBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kp_skips", Size: skipSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		e.device.DestroyBuffer(maskBuf)
		e.device.DestroyBuffer(configBuf)
		return nil, nil, nil, nil, fmt.Errorf("native: create skip buffer: %w", err)
	}

	e.queue.WriteBuffer(configBuf, 0, cfgBytes)
	e.queue.WriteBuffer(maskBuf, 0, input)

	encodedSize := uint64(e.length * e.length * wire.BytesPerPixel)
	bindGroup, err = e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "kp_bind", Layout: e.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: configBuf.NativeHandle(), Offset: 0, Size: uint64(len(cfgBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: maskBuf.NativeHandle(), Offset: 0, Size: uint64(len(input))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: skipBuf.NativeHandle(), Offset: 0, Size: skipSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: e.encodedBuf.NativeHandle(), Offset: 0, Size: encodedSize}},
		},
	})
	if err != nil {
		e.device.DestroyBuffer(skipBuf)
		e.device.DestroyBuffer(maskBuf)
		e.device.DestroyBuffer(configBuf)
		return nil, nil, nil, nil, fmt.Errorf("native: create bind group: %w", err)
	}
	return maskBuf, skipBuf, configBuf, bindGroup, nil
}

func (e *Encoder) destroyFrameBindings(maskBuf, skipBuf, configBuf hal.Buffer, bindGroup hal.BindGroup) {
	if bindGroup != nil {
		e.device.DestroyBindGroup(bindGroup)
	}
	for _, b := range []hal.Buffer{skipBuf, maskBuf, configBuf} {
		if b != nil {
			e.device.DestroyBuffer(b)
		}
	}
}

func (e *Encoder) submitAndWait(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	fenceOK, err := e.device.Wait(fence, 1, gpuWaitLimit)
	if err != nil || !fenceOK {
		return fmt.Errorf("%w: fence wait ok=%v err=%v", backend.ErrTransferFailed, fenceOK, err)
	}
	return nil
}

func runPass(encoder hal.CommandEncoder, pipeline hal.ComputePipeline, bindGroup hal.BindGroup, groups uint32) {
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "kp_pass"})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(groups, 1, 1)
	pass.End()
}

func dispatchGroups(items int) uint32 {
	return uint32((items + workgroupSize - 1) / workgroupSize)
}

// packMaskForGPU serializes mask texels into little-endian u32 words, one
// per RGBA8 texel.
func packMaskForGPU(mask *speedy.Texture) []byte {
	pix := mask.Pix()
	out := make([]byte, len(pix))
	copy(out, pix)
	return out
}
