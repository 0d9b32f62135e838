package legacy

import "github.com/NARUBROWN/bridge/pkg/legacy"

// session은 레거시 세션 값을 바이트로 노출합니다. 세션이 없는 요청에서는 모든 읽기가 비어 있습니다.
type session struct {
	source legacy.Session
}

func (s *session) bind(source legacy.Session) {
	s.source = source
}

func (s *session) reset() {
	s.source = nil
}

func (s *session) Available() bool {
	return s.source != nil
}

func (s *session) ID() string {
	if s.source == nil {
		return ""
	}
	return s.source.ID()
}

func (s *session) Keys() []string {
	if s.source == nil {
		return nil
	}
	return s.source.Keys()
}

func (s *session) Get(key string) ([]byte, bool) {
	if s.source == nil {
		return nil, false
	}
	switch v := s.source.Get(key).(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

func (s *session) Set(key string, value []byte) {
	if s.source != nil {
		s.source.Set(key, value)
	}
}

func (s *session) Remove(key string) {
	if s.source != nil {
		s.source.Remove(key)
	}
}

func (s *session) Clear() {
	if s.source != nil {
		s.source.Clear()
	}
}
