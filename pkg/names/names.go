// Package names replaces generic speaker labels in generated narrative text
// ("Man 1:", "Cashier:") with stable character names for a conversation.
package names

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// Mapping records the name chosen for each normalized placeholder label.
// It is scoped to one conversation and mutated in place by Normalize.
type Mapping map[string]string

// Pools are the candidate names, tried in order.
type Pools struct {
	Female  []string `json:"female"`
	Male    []string `json:"male"`
	Neutral []string `json:"neutral"`
}

// DefaultPools returns the built-in name pools.
func DefaultPools() Pools {
	return Pools{
		Female: []string{
			"Sarah", "Emily", "Maya", "Olivia", "Hannah", "Clara", "Grace", "Nora",
			"Isabel", "Lucy", "Vera", "Eleanor",
		},
		Male: []string{
			"Marcus", "James", "Daniel", "Ethan", "Leo", "Owen", "Victor", "Henry",
			"Samuel", "Theo", "Adrian", "Felix",
		},
		Neutral: []string{
			"Alex", "Jordan", "Riley", "Morgan", "Casey", "Quinn", "Avery", "Rowan",
		},
	}
}

// Result is the rewritten text and the names minted during the pass.
type Result struct {
	Text  string   `json:"text"`
	Added []string `json:"added"`
}

const maxSuffix = 99

var (
	numberWords = map[string]string{
		"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
		"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	}

	genericPeople = []string{
		"man", "woman", "person", "guy", "girl", "boy", "lady", "gentleman",
		"stranger", "figure", "voice",
	}

	roles = []string{
		"security guard", "police officer", "flight attendant", "shop assistant",
		"cashier", "nurse", "doctor", "guard", "waiter", "waitress", "bartender",
		"barista", "officer", "clerk", "receptionist", "manager", "customer", "driver",
		"teacher", "student", "soldier", "shopkeeper", "merchant", "vendor", "servant",
		"maid", "butler", "detective", "priest", "nun", "villager", "patron", "bouncer",
		"pilot", "host", "hostess", "librarian", "innkeeper", "stewardess", "barmaid",
		"announcer", "reporter", "neighbor", "passenger", "attendant", "courier",
		"messenger", "knight", "sailor", "captain", "coworker", "boss", "paramedic",
	}

	femaleKeywords  = []string{"woman", "girl", "lady", "waitress", "hostess", "maid", "nun", "queen", "mother", "actress", "stewardess", "barmaid", "female"}
	neutralKeywords = []string{"person", "stranger", "figure", "voice"}

	labelRX = regexp.MustCompile(`(?im)^([ \t]*)(` + alternation(append(genericPeople, roles...)) + `)(?:[ \t]+(\d{1,3}|` + alternation(keys(numberWords)) + `))?[ \t]*:`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `[ \t]+`)
	}
	return strings.Join(quoted, "|")
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Normalizer rewrites placeholder labels using its name pools.
type Normalizer struct {
	Pools Pools
	// Rand is used for the last-resort fallback label. Nil uses math/rand/v2.
	Rand *rand.Rand
}

// New returns a Normalizer over pools, substituting defaults for empty pools.
func New(pools Pools) *Normalizer {
	def := DefaultPools()
	if len(pools.Female) == 0 {
		pools.Female = def.Female
	}
	if len(pools.Male) == 0 {
		pools.Male = def.Male
	}
	if len(pools.Neutral) == 0 {
		pools.Neutral = def.Neutral
	}
	return &Normalizer{Pools: pools}
}

var std = New(DefaultPools())

// Normalize rewrites text with the default pools. See Normalizer.Normalize.
func Normalize(text string, used []string, m Mapping) Result {
	return std.Normalize(text, used, m)
}

// Normalize replaces every line-leading placeholder label in text with
// "<Name>:". Labels already in m reuse their name; new labels get the first
// free name from the pool implied by the label and are recorded in m.
// used holds names already taken in the conversation, compared case-insensitively.
func (n *Normalizer) Normalize(text string, used []string, m Mapping) Result {
	res := Result{Text: text}
	if text == "" {
		return res
	}
	if m == nil {
		m = Mapping{}
	}

	taken := make(map[string]struct{}, len(used)+len(m))
	for _, u := range used {
		if u = strings.TrimSpace(u); u != "" {
			taken[strings.ToLower(u)] = struct{}{}
		}
	}
	for _, name := range m {
		taken[strings.ToLower(name)] = struct{}{}
	}

	res.Text = labelRX.ReplaceAllStringFunc(text, func(match string) string {
		sub := labelRX.FindStringSubmatch(match)
		indent, word, num := sub[1], sub[2], sub[3]
		label := Label(word, num)

		name, ok := m[label]
		if !ok {
			name = n.pick(poolFor(word, n.Pools), taken)
			m[label] = name
			taken[strings.ToLower(name)] = struct{}{}
			res.Added = append(res.Added, name)
		}
		return indent + name + ":"
	})
	return res
}

// Label returns the normalized mapping key for a placeholder word and its
// optional number, e.g. ("Woman", "Two") -> "woman 2".
func Label(word, num string) string {
	key := strings.Join(strings.Fields(strings.ToLower(word)), " ")
	num = strings.ToLower(strings.TrimSpace(num))
	if num == "" {
		return key
	}
	if d, ok := numberWords[num]; ok {
		num = d
	} else if v, err := strconv.Atoi(num); err == nil {
		num = strconv.Itoa(v)
	}
	return key + " " + num
}

func poolFor(word string, p Pools) []string {
	w := strings.ToLower(word)
	for _, k := range femaleKeywords {
		if strings.Contains(w, k) {
			return p.Female
		}
	}
	for _, k := range neutralKeywords {
		if strings.Contains(w, k) {
			return p.Neutral
		}
	}
	return p.Male
}

func (n *Normalizer) pick(pool []string, taken map[string]struct{}) string {
	free := func(s string) bool {
		_, ok := taken[strings.ToLower(s)]
		return !ok
	}
	for _, name := range pool {
		if free(name) {
			return name
		}
	}
	if len(pool) > 0 {
		for i := 2; i <= maxSuffix; i++ {
			if name := fmt.Sprintf("%s %d", pool[0], i); free(name) {
				return name
			}
		}
	}
	for {
		if name := fmt.Sprintf("Character %04d", n.intN(10000)); free(name) {
			return name
		}
	}
}

func (n *Normalizer) intN(max int) int {
	if n.Rand != nil {
		return n.Rand.IntN(max)
	}
	return rand.IntN(max)
}
