// Package gate is the fast local classifier that runs before any model call.
// It matches canned replies, applies a keyword relevance heuristic, and
// decides the response-language directive. Identical input always yields the
// identical verdict; nothing here touches the network.
package gate

import (
	"context"
	"sort"
	"strings"

	"github.com/terrain-assistant/server/internal/audit"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

// Kind discriminates the gate verdict.
type Kind int

const (
	// InScope lets the message through to the model.
	InScope Kind = iota
	// Prewritten short-circuits with a canned reply.
	Prewritten
	// OffTopic short-circuits with the fixed deny message.
	OffTopic
)

// Verdict is the gate's classification of one inbound message.
type Verdict struct {
	Kind    Kind
	Reply   string   // set for Prewritten and OffTopic
	Matched []string // keywords that hit, for the audit reason
}

// GreetingReply is the canned answer for greetings.
const GreetingReply = "Hi! I’m the TERRAIN assistant. I focus on ecology, the arts, and books. " +
	"I can help with reading lists, events, and borrowing information. How can I help?"

// AboutReply is the canned answer for "what is TERRAIN" questions.
const AboutReply = "TERRAIN is a collection of projects that reconnect people with the more-than-human world " +
	"through arts and cross-disciplinary collaboration. We offer book lending, curated reading lists, " +
	"events, and workshops that link ecology, technology, and community care."

// OffTopicMessage is the fixed deny reply for messages below the relevance threshold.
const OffTopicMessage = "Sorry, this assistant focuses on ecology/environment, the arts, and books (e.g., reading recommendations, " +
	"catalog queries, events, and workshops). To conserve resources we do not process unrelated requests. " +
	"You can try: ‘Recommend a few beginner books on climate and design’, ‘How do I join a TERRAIN event?’, or ‘Search books by author’."

// Topic keywords, English plus Chinese. Substring match against the
// normalised message.
var ecologyWords = []string{
	"ecology", "ecological", "environment", "environmental", "climate",
	"sustainab", "biodiversity", "conservation", "pollution", "carbon",
	"recycl", "green",
	"生态", "环保", "环境", "气候", "可持续", "多样性", "保育", "污染", "碳", "回收",
}

var bookWords = []string{
	"book", "books", "reading", "read list", "reading list", "catalog",
	"catalogue", "library", "borrow", "loan", "return", "overdue", "author",
	"title", "recommend", "stock", "price",
	"书", "图书", "书单", "阅读", "借阅", "还书", "逾期", "作者", "书名", "推荐",
}

var terrainWords = []string{
	"terrain", "manifesto", "workshop", "event", "program", "project",
	"宣言", "活动", "项目", "工作坊",
}

var greetings = []string{
	"hi", "hello", "hey", "yo", "good morning", "good afternoon", "good evening",
	"你好", "嗨", "哈喽",
}

var topicTable = []struct {
	category string
	words    []string
}{
	{"ecology", ecologyWords},
	{"books", bookWords},
	{"terrain", terrainWords},
}

// Gate classifies inbound messages. Construct once at startup; safe for
// concurrent use.
type Gate struct {
	minHits  int
	recorder audit.Recorder
}

// New builds a gate with the given minimum keyword-hit threshold. A threshold
// below 1 is raised to 1.
func New(minHits int, recorder audit.Recorder) *Gate {
	if minHits < 1 {
		minHits = 1
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Gate{minHits: minHits, recorder: recorder}
}

// Classify runs the canned-reply match strictly before the relevance
// heuristic, so a greeting about books still gets the greeting reply.
func (g *Gate) Classify(ctx context.Context, message string) Verdict {
	if reply, ok := prewrittenReply(message); ok {
		return Verdict{Kind: Prewritten, Reply: reply}
	}

	hits := matchedKeywords(message)
	if len(hits) >= g.minHits {
		return Verdict{Kind: InScope, Matched: hits}
	}

	reason := "no topic keywords"
	if len(hits) > 0 {
		reason = "below threshold: " + strings.Join(hits, ", ")
	}
	logx.Debug().Str("reason", reason).Msg("Message gated as off-topic")
	g.recorder.Record(ctx, audit.Entry{
		Kind:    audit.KindOffTopic,
		Message: message,
		Reason:  reason,
	})
	return Verdict{Kind: OffTopic, Reply: OffTopicMessage, Matched: hits}
}

func prewrittenReply(message string) (string, bool) {
	t := normalize(message)

	if t == "/start" || t == "start" {
		return GreetingReply, true
	}
	for _, greet := range greetings {
		if containsWord(t, greet) {
			return GreetingReply, true
		}
	}

	if strings.Contains(t, "what is terrain") ||
		strings.Contains(t, "terrain 是什么") ||
		(strings.Contains(t, "terrain") && strings.Contains(t, "what")) {
		return AboutReply, true
	}

	return "", false
}

func matchedKeywords(message string) []string {
	t := normalize(message)
	seen := map[string]struct{}{}
	for _, topic := range topicTable {
		for _, w := range topic.words {
			if strings.Contains(t, w) {
				seen[w] = struct{}{}
			}
		}
	}
	hits := make([]string, 0, len(seen))
	for w := range seen {
		hits = append(hits, w)
	}
	sort.Strings(hits)
	return hits
}

// containsWord matches short ASCII greetings on word boundaries so "history"
// does not trigger "hi"; CJK greetings match as substrings.
func containsWord(text, word string) bool {
	if !isASCII(word) {
		return strings.Contains(text, word)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
