package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// InBounds reports whether the write fits inside the target buffer.
//
// Returns:
//   - bool: true if Offset+len(Data) does not exceed the buffer size
func (w BufferWrite) InBounds() bool {
	if w.Provider == nil {
		return false
	}
	size := w.Provider.BufferSize(w.Binding)
	return w.Offset <= size && uint64(len(w.Data)) <= size-w.Offset
}
