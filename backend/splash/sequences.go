package splash

const (
	PreloaderName = "preloader"
	MainUIName    = "mainUI"
)

// Preloader は起動時のスプラッシュ画面の演出
// タイトル表示、機能カードの順次表示、注意書き、フェードアウトの順に進む
func Preloader() Timeline {
	return Timeline{
		Name:        PreloaderName,
		DefaultEase: "power2.out",
		Required:    []string{"#preloader", "#appMain", ".preloader-title", ".feature-card", ".edge-warning"},
		Steps: []Step{
			{Target: ".preloader-title", Method: MethodFromTo, From: Props{"opacity": 0, "y": 20}, To: Props{"opacity": 1, "y": 0}, Duration: 1},
			// 中央で2秒間止める
			{Target: ".preloader-title", Method: MethodTo, Duration: 2},
			{Target: ".preloader-title", Method: MethodTo, To: Props{"y": -120}, Duration: 1, Ease: "power2.inOut"},
			{Target: ".feature-grid", Method: MethodSet, To: Props{"opacity": 1}},
			{Target: ".feature-card", Method: MethodTo, To: Props{"opacity": 1, "y": 0}, Duration: 0.5, Stagger: 0.25, Ease: "power2.out", Position: "<+0.2"},
			{Target: ".edge-warning", Method: MethodFromTo, From: Props{"opacity": 0, "y": 10}, To: Props{"opacity": 1, "y": 0}, Duration: 1, Position: "+=0.4"},
			{Target: "#preloader", Method: MethodTo, To: Props{"opacity": 0}, Duration: 2, Ease: "power2.inOut", Position: "+=1.2"},
		},
	}
}

// MainUI はスプラッシュ終了後のメイン画面の演出
func MainUI() Timeline {
	return Timeline{
		Name:        MainUIName,
		DefaultEase: "power3.out",
		Steps: []Step{
			{Target: "main", Method: MethodFrom, From: Props{"opacity": 0, "y": 30}, Duration: 1},
			{Target: "#formTitle", Method: MethodFrom, From: Props{"opacity": 0, "y": -20}, Duration: 0.8, Position: "-=0.6"},
			{Target: "#noteForm input, #noteForm textarea, #noteForm button", Method: MethodFrom, From: Props{"opacity": 0, "y": 20}, Duration: 0.5, Stagger: 0.2, Position: "-=0.4"},
			{Target: "#notesHeader", Method: MethodFrom, From: Props{"opacity": 0, "y": 10}, Duration: 0.5, Position: "-=0.4"},
			{Target: ".note-card", Method: MethodFrom, From: Props{"opacity": 0, "y": 20}, Duration: 1.2, Stagger: 0.15, Position: "-=0.3"},
		},
	}
}

// ByName は名前からタイムラインを返す
func ByName(name string) (Timeline, bool) {
	switch name {
	case PreloaderName:
		return Preloader(), true
	case MainUIName:
		return MainUI(), true
	default:
		return Timeline{}, false
	}
}

// Targets はタイムラインが参照するセレクタを重複なしで返す
func (t Timeline) Targets() []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(selector string) {
		if !seen[selector] {
			seen[selector] = true
			targets = append(targets, selector)
		}
	}
	for _, selector := range t.Required {
		add(selector)
	}
	for _, step := range t.Steps {
		add(step.Target)
	}
	return targets
}
