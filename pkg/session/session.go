package session

// Session holds the values bound to one client session. It is request
// scoped and not safe for concurrent use.
type Session struct {
	id     string
	values map[string]string
	dirty  bool
	fresh  bool
}

// ID returns the opaque session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get returns the value stored under key, or "".
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Set stores value under key and marks the session dirty.
func (s *Session) Set(key, value string) {
	if current, ok := s.values[key]; ok && current == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Delete removes key and marks the session dirty if it was present.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Dirty reports whether the session has unsaved changes.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Fresh reports whether the session was created during this request
// rather than loaded from the store.
func (s *Session) Fresh() bool {
	return s.fresh
}

// Clear drops every value.
func (s *Session) Clear() {
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[string]string)
	s.dirty = true
}
