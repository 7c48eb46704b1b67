// Package classify decides whether a market question is geopolitical
// and which regional cluster it belongs to. The keyword classifier is
// the authoritative fallback; the LLM classifier delegates to it when
// the remote call fails.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/geostrat/paperbot/internal/domain"
)

// garbageKeywords knock out obvious non-political markets (sports,
// crypto prices, entertainment) before any entity matching runs.
var garbageKeywords = []string{
	// Sports
	"nfl", "nba", "mlb", "nhl", "mls", "ufc", "wwe", "pga", "lpga",
	"premier league", "la liga", "serie a", "bundesliga", "ligue 1",
	"champions league", "europa league", "world cup",
	"super bowl", "stanley cup", "world series", "march madness",
	"touchdown", "quarterback", "rushing yards", "receiving yards",
	"rebounds", "assists", "three-pointers", "free throws",
	"home run", "strikeout", "batting average",
	"goals scored", "clean sheet", "penalty kick", "yellow card",
	"knockout", "submission", "weigh-in",
	"tennis", "wimbledon", "us open", "french open", "australian open",
	"golf", "masters", "pga championship",
	"f1", "formula 1", "nascar", "indycar", "motogp",
	"olympics", "paralympics", "medal count",
	"esports", "counter-strike", "valorant", "league of legends", "dota",
	"fortnite", "call of duty", "overwatch",
	"lakers", "celtics", "warriors", "heat", "bulls", "knicks", "nets",
	"cowboys", "patriots", "chiefs", "eagles", "packers",
	"bulldogs", "crimson tide", "buckeyes", "wolverines",
	"yankees", "dodgers", "red sox", "cubs",
	// Crypto prices
	"bitcoin price", "btc price", "ethereum price", "eth price",
	"solana price", "sol price", "crypto price", "token price",
	"memecoin", "meme coin", "nft drop", "airdrop",
	"all time high", "market cap",
	// Entertainment
	"movie", "film release", "box office", "netflix", "disney+", "hbo",
	"album drop", "grammy", "emmy", "oscar", "golden globe",
	"taylor swift", "drake album", "kanye", "kardashian",
	"bachelor", "bachelorette", "survivor", "big brother",
	"youtube subscribers", "tiktok followers", "twitch",
	"streamer", "influencer",
	// Gaming
	"speedrun", "video game release",
	// Weather without political angle
	"earthquake magnitude", "hurricane category", "tornado",
	"tsunami warning", "volcano eruption",
}

var garbagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(nba|nfl|mlb|nhl|ufc|mma)\b`),
	regexp.MustCompile(`(?i)\b(rebounds?|assists?|touchdowns?|strikeouts?)\b`),
	regexp.MustCompile(`(?i)\bover/under\b`),
	regexp.MustCompile(`(?i)\bo/u\s*\d`),
	regexp.MustCompile(`(?i)\b(spread|moneyline|parlay)\b`),
}

// entityWordBoundary holds short or ambiguous entity terms that need
// word-boundary matching ("us" must not match "discuss").
var entityWordBoundary = []string{
	"us", "uk", "eu", "un", "uae",
	"iran", "iraq", "cuba", "gaza", "mali", "chad",
	"nato", "idf", "cia", "fbi", "gru", "fsb", "sdf",
	"assad", "modi",
}

// entitySafe holds entity terms long enough for plain substring match.
var entitySafe = []string{
	"russia", "russian", "ukraine", "ukrainian", "china", "chinese",
	"taiwan", "taiwanese", "israel", "israeli", "palestine", "palestinian",
	"venezuela", "venezuelan", "syria", "syrian", "lebanon", "lebanese",
	"north korea", "south korea", "korean",
	"afghanistan", "pakistan", "pakistani", "saudi", "yemen", "yemeni",
	"turkey", "turkish", "egypt", "egyptian", "libya", "libyan",
	"belarus", "belarusian", "crimea", "crimean",
	"mexico", "mexican", "colombia", "colombian",
	"japan", "japanese", "philippines", "filipino",
	"vietnam", "vietnamese", "myanmar", "burma",
	"india", "indian", "kashmir",
	"sudan", "sudanese", "ethiopia", "ethiopian", "somalia", "somalian",
	"kyiv", "kiev", "kharkiv", "mariupol", "bakhmut", "pokrovsk",
	"moscow", "beijing", "taipei", "tehran", "damascus", "beirut",
	"jerusalem", "tel aviv", "gaza city", "rafah",
	"caracas", "pyongyang", "seoul", "kabul", "islamabad",
	"putin", "zelensky", "zelenskyy", "khamenei", "netanyahu",
	"xi jinping", "kim jong", "maduro", "erdogan", "lukashenko",
	"lavrov", "shoigu", "nasrallah", "sinwar", "gallant",
	"hamas", "hezbollah", "houthi", "houthis", "taliban", "wagner",
	"irgc", "mossad", "kremlin", "pentagon",
	"united nations", "security council", "european union",
}

var actions = []string{
	// Military
	"invasion", "invade", "invaded", "invades",
	"strike", "strikes", "struck", "airstrike", "air strike",
	"missile", "drone strike", "bombing", "bomb", "bombed",
	"attack", "attacked", "attacks", "offensive",
	"capture", "captured", "captures", "seize", "seized",
	"advance", "advancing", "retreat", "retreating",
	"counteroffensive", "counter-offensive",
	"occupy", "occupied", "occupation",
	"annex", "annexed", "annexation",
	"blockade", "siege", "encircle",
	"deploy", "deployed", "deployment",
	"shell", "shelling", "artillery",
	"clash", "clashes", "clashed",
	// Peace and diplomacy
	"ceasefire", "cease-fire", "truce", "armistice",
	"peace deal", "peace treaty", "peace talks", "peace agreement",
	"negotiate", "negotiation", "negotiations",
	"summit", "diplomatic talks",
	"disarm", "disarmament",
	// Political change
	"regime change", "regime fall", "fall of",
	"coup", "uprising", "revolution", "revolt",
	"resign", "resigns", "resignation",
	"oust", "ousted", "topple", "toppled", "overthrow",
	"assassinate", "assassination",
	// Sanctions
	"sanctions", "sanction", "sanctioned",
	"embargo", "embargoed",
	"tariff", "tariffs",
	// Escalation
	"escalation", "escalate", "escalates",
	"nuclear", "atomic", "warhead",
	"war", "warfare", "conflict",
	// Casualties
	"casualties", "killed", "deaths",
	"hostage", "hostages", "prisoner",
	"war crime", "genocide", "atrocity",
	// Leadership status markers
	"out as", "out by", "removed as", "no longer",
	"president", "prime minister", "leader",
	"remain", "remains",
}

// clusters are checked in listed order; the first keyword hit wins.
// Russia terms sit in the ukraine cluster because nearly every Russia
// market in this pool is about the Ukraine war.
var clusters = []struct {
	name     string
	keywords []string
}{
	{"ukraine", []string{
		"ukraine", "ukrainian", "kyiv", "kiev", "kharkiv", "mariupol",
		"bakhmut", "pokrovsk", "zelensky", "zelenskyy", "crimea",
		"russia", "russian", "putin", "moscow", "kremlin",
	}},
	{"mideast", []string{
		"israel", "israeli", "gaza", "palestine", "palestinian",
		"iran", "iranian", "tehran", "khamenei",
		"lebanon", "lebanese", "beirut", "hezbollah", "nasrallah",
		"syria", "syrian", "damascus", "assad",
		"yemen", "yemeni", "houthi", "houthis",
		"iraq", "iraqi", "baghdad",
		"netanyahu", "gallant", "idf", "hamas", "sinwar",
	}},
	{"china", []string{
		"china", "chinese", "beijing", "xi jinping",
		"taiwan", "taiwanese", "taipei",
		"south china sea", "taiwan strait",
	}},
	{"latam", []string{
		"venezuela", "venezuelan", "caracas", "maduro",
		"cuba", "cuban", "havana",
		"mexico", "mexican",
		"colombia", "colombian",
	}},
	{"europe", []string{
		"nato", "european union",
		"uk ", "u.k.", "britain", "british",
		"france", "french", "macron",
		"germany", "german", "scholz",
		"poland", "polish",
	}},
	{"africa", []string{
		"sudan", "sudanese", "khartoum",
		"ethiopia", "ethiopian",
		"somalia", "somalian", "mogadishu",
		"libya", "libyan", "tripoli",
		"nigeria", "nigerian",
	}},
}

var entityWBPatterns = compileWordBoundary(entityWordBoundary)

func compileWordBoundary(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return out
}

// KeywordClassifier classifies by lexical matching: a question is
// geopolitical when it names at least one entity and one action and is
// not garbage.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the lexical classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify never returns an error; lexical matching cannot fail.
func (k *KeywordClassifier) Classify(_ context.Context, question string) (domain.Classification, error) {
	return classifyText(question), nil
}

// ClassifyBatch classifies each question independently.
func (k *KeywordClassifier) ClassifyBatch(_ context.Context, questions []string) ([]domain.Classification, error) {
	out := make([]domain.Classification, len(questions))
	for i, q := range questions {
		out[i] = classifyText(q)
	}
	return out, nil
}

func classifyText(question string) domain.Classification {
	if question == "" {
		return domain.Classification{Cluster: "other"}
	}
	q := strings.ToLower(question)
	if isGarbage(q) || !hasEntity(q) || !hasAction(q) {
		return domain.Classification{Cluster: "other"}
	}
	return domain.Classification{Geopolitical: true, Cluster: clusterFor(q)}
}

func isGarbage(q string) bool {
	for _, kw := range garbageKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	for _, rx := range garbagePatterns {
		if rx.MatchString(q) {
			return true
		}
	}
	return false
}

func hasEntity(q string) bool {
	for _, rx := range entityWBPatterns {
		if rx.MatchString(q) {
			return true
		}
	}
	for _, kw := range entitySafe {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func hasAction(q string) bool {
	for _, kw := range actions {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func clusterFor(q string) string {
	for _, c := range clusters {
		for _, kw := range c.keywords {
			if strings.Contains(q, kw) {
				return c.name
			}
		}
	}
	return "other"
}

// Compile-time interface check.
var _ domain.Classifier = (*KeywordClassifier)(nil)
