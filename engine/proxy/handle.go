// Package proxy contains the handle-addressed render proxies: lightweight POD
// render-state records decoupled from whatever entity or scene-graph layer
// drives them. Proxies live in generation-counted pools and are referenced
// only by ProxyHandle; stale handles read as "not found", never as errors.
package proxy

// InvalidProxyIndex is the sentinel slot index of an invalid handle.
const InvalidProxyIndex = ^uint32(0)

// ProxyHandle identifies one slot in a ProxyPool as an (index, generation)
// pair. A handle is valid only while the pool slot's generation matches; the
// generation advances on Free, so recycled slots never alias old handles.
type ProxyHandle struct {
	Index      uint32
	Generation uint32
}

// InvalidHandle returns the sentinel handle that no pool will ever resolve.
//
// Returns:
//   - ProxyHandle: the invalid handle
func InvalidHandle() ProxyHandle {
	return ProxyHandle{Index: InvalidProxyIndex}
}

// IsNil reports whether the handle is the invalid sentinel. This is a cheap
// local check; whether a non-nil handle is still live can only be answered by
// the owning pool.
//
// Returns:
//   - bool: true if the handle is the invalid sentinel
func (h ProxyHandle) IsNil() bool {
	return h.Index == InvalidProxyIndex
}
