//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

// be_unsupported.go - deliberate compile failure on big-endian
// targets: the audio path casts float32 sample buffers to raw bytes
// and hands them to a little-endian PCM stream without swapping.

package machine

var _ = littleEndianHostRequired // undeclared on purpose
