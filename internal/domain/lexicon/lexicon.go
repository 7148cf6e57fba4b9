// Package lexicon holds the word tables the analyzers match against.
// Tables are plain data so deployments can swap them without code changes.
package lexicon

type Category struct {
	Name  string   `yaml:"name" json:"name"`
	Words []string `yaml:"words" json:"words"`
}

type Lexicon struct {
	// Emotions are counted together for the excitement score. A word listed
	// in two categories counts twice.
	Emotions []Category `yaml:"emotions" json:"emotions"`
	// StrongEmotion words make a transcript line quotable on their own.
	StrongEmotion []string `yaml:"strong_emotion" json:"strong_emotion"`
	// Interrogatives make a question line quotable.
	Interrogatives []string `yaml:"interrogatives" json:"interrogatives"`
	// Transitions mark a topic change when found in a lower-cased line.
	Transitions []string `yaml:"transitions" json:"transitions"`
	// Topics are matched in order; the first best-scoring label wins.
	Topics       []Category `yaml:"topics" json:"topics"`
	DefaultTopic string     `yaml:"default_topic" json:"default_topic"`

	CommentStopWords    []string `yaml:"comment_stop_words" json:"comment_stop_words"`
	TranscriptStopWords []string `yaml:"transcript_stop_words" json:"transcript_stop_words"`
}

var excited = []string{"哈哈", "笑死", "卧槽", "牛逼", "太强了", "神", "名场面", "经典", "震撼", "惊讶"}

// Default returns the built-in tables tuned for Chinese live streams.
func Default() Lexicon {
	return Lexicon{
		Emotions: []Category{
			{Name: "excited", Words: append([]string(nil), excited...)},
			{Name: "funny", Words: []string{"哈哈", "hhh", "笑", "草", "233", " funny", " hilarious"}},
			{Name: "shocked", Words: []string{"什么", "不可能", "真的假的", "惊", "吓", "???", "？"}},
			{Name: "angry", Words: []string{"气", "怒", "讨厌", "烦", "滚", "可恶"}},
			{Name: "sad", Words: []string{"哭", "泪", "难受", "心疼", " sad", "泪目"}},
		},
		StrongEmotion:  append([]string(nil), excited...),
		Interrogatives: []string{"什么", "为什么", "怎么", "真的"},
		Transitions: []string{
			"接下来", "然后", "那么", "好了", "接下来我们", "现在",
			"next", "so", "alright", "okay then", "moving on",
		},
		Topics: []Category{
			{Name: "编程", Words: []string{"代码", "程序", "编程", "python", "javascript", "bug", "报错"}},
			{Name: "游戏", Words: []string{"游戏", "打", "玩", "通关", "boss", "关卡", "游戏"}},
			{Name: "聊天", Words: []string{"聊天", "说", "讲", "聊", "话题", "讨论"}},
			{Name: "唱歌", Words: []string{"唱歌", "歌", "唱", "音乐"}},
			{Name: "搞笑", Words: []string{"笑", "搞笑", "哈哈哈", "梗", "段子"}},
		},
		DefaultTopic:        "直播互动",
		CommentStopWords:    []string{"哈哈", "啊啊", "什么", "这个", "那个", "今天", "现在", "真的", "可以"},
		TranscriptStopWords: []string{"这个", "那个", "什么", "一个", "可以", "就是", "我们", "你们"},
	}
}

// Merge overlays the non-empty tables of o onto l.
func (l Lexicon) Merge(o Lexicon) Lexicon {
	if len(o.Emotions) > 0 {
		l.Emotions = o.Emotions
	}
	if len(o.StrongEmotion) > 0 {
		l.StrongEmotion = o.StrongEmotion
	}
	if len(o.Interrogatives) > 0 {
		l.Interrogatives = o.Interrogatives
	}
	if len(o.Transitions) > 0 {
		l.Transitions = o.Transitions
	}
	if len(o.Topics) > 0 {
		l.Topics = o.Topics
	}
	if o.DefaultTopic != "" {
		l.DefaultTopic = o.DefaultTopic
	}
	if len(o.CommentStopWords) > 0 {
		l.CommentStopWords = o.CommentStopWords
	}
	if len(o.TranscriptStopWords) > 0 {
		l.TranscriptStopWords = o.TranscriptStopWords
	}
	return l
}
