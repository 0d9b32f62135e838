package core

// Session은 레거시 호스트의 세션 상태를 바이트 값으로 노출합니다.
type Session interface {
	Available() bool
	ID() string
	Keys() []string
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
	Clear()
}
