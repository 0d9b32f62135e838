package core

// Definition은 브리지로 호스팅할 파이프라인 하나를 설명합니다.
// 코디네이터는 Definition 포인터를 키로 한 번만 만들어지므로
// 등록한 뒤에는 값을 바꾸지 않아야 합니다.
type Definition struct {
	// Name은 로그와 지표 라벨에 쓰입니다.
	Name string

	// ConfigureServices는 정의 전용 컨테이너에 서비스를 등록합니다.
	ConfigureServices func(services ServiceCollection) error

	// Configure는 미들웨어 파이프라인을 구성합니다.
	Configure func(app PipelineBuilder) error
}

func (d *Definition) String() string {
	if d == nil {
		return "<nil>"
	}
	if d.Name == "" {
		return "bridge"
	}
	return d.Name
}
