package names

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoleLabelUsesMalePool(t *testing.T) {
	m := Mapping{}
	res := Normalize("Cashier: That'll be four dollars.\nYou hand over the cash.", nil, m)

	assert.Equal(t, "Marcus: That'll be four dollars.\nYou hand over the cash.", res.Text)
	assert.Equal(t, []string{"Marcus"}, res.Added)
	assert.Equal(t, Mapping{"cashier": "Marcus"}, m)
}

func TestNormalizeReusesMapping(t *testing.T) {
	m := Mapping{}
	text := "Cashier: Next!\nMan 1: Hey, I was here first."

	first := Normalize(text, nil, m)
	second := Normalize(text, nil, m)

	assert.Equal(t, first.Text, second.Text)
	assert.Len(t, first.Added, 2)
	assert.Empty(t, second.Added)
	assert.Equal(t, "Marcus: Next!\nJames: Hey, I was here first.", first.Text)
}

func TestNormalizeSameLabelInOnePass(t *testing.T) {
	res := Normalize("Nurse: Sit down.\nYou sit.\nNurse: Good.", nil, Mapping{})

	assert.Equal(t, "Marcus: Sit down.\nYou sit.\nMarcus: Good.", res.Text)
	assert.Equal(t, []string{"Marcus"}, res.Added)
}

func TestNormalizeNumberWordsShareLabel(t *testing.T) {
	m := Mapping{}
	res := Normalize("Woman Two: Hello.\nwoman 2: Again.", nil, m)

	assert.Equal(t, "Sarah: Hello.\nSarah: Again.", res.Text)
	assert.Equal(t, "Sarah", m["woman 2"])
}

func TestNormalizePoolSelection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"female generic", "Woman: Hi.", "Sarah: Hi."},
		{"female role", "Waitress: Coffee?", "Sarah: Coffee?"},
		{"neutral", "Person: Excuse me.", "Alex: Excuse me."},
		{"stranger", "  Stranger 3: Psst.", "  Alex: Psst."},
		{"male generic", "Man One: Hey.", "Marcus: Hey."},
		{"multi word role", "Security Guard: Halt.", "Marcus: Halt."},
		{"case insensitive", "CASHIER: Next.", "Marcus: Next."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.in, nil, Mapping{})
			assert.Equal(t, tt.want, res.Text)
		})
	}
}

func TestNormalizeSkipsUsedNames(t *testing.T) {
	res := Normalize("Cashier: Hi.", []string{"marcus", "JAMES"}, Mapping{})

	assert.Equal(t, "Daniel: Hi.", res.Text)
}

func TestNormalizeIgnoresNonLeadingAndNonLabels(t *testing.T) {
	in := "She looked at the cashier: nothing.\nMankind: a word.\nManagerial: no."
	res := Normalize(in, nil, Mapping{})

	assert.Equal(t, in, res.Text)
	assert.Empty(t, res.Added)
}

func TestNormalizeExhaustedPoolUsesSuffix(t *testing.T) {
	n := New(Pools{Male: []string{"Marcus"}})
	res := n.Normalize("Guard: Stop.", []string{"Marcus"}, Mapping{})

	assert.Equal(t, "Marcus 2: Stop.", res.Text)
}

func TestNormalizeExhaustedSuffixesUsesFallback(t *testing.T) {
	used := []string{"Marcus"}
	for i := 2; i <= maxSuffix; i++ {
		used = append(used, fmt.Sprintf("Marcus %d", i))
	}
	n := New(Pools{Male: []string{"Marcus"}})
	n.Rand = rand.New(rand.NewPCG(1, 2))

	res := n.Normalize("Guard: Stop.", used, Mapping{})

	require.Len(t, res.Added, 1)
	assert.True(t, strings.HasPrefix(res.Added[0], "Character "))
	assert.Equal(t, res.Added[0]+": Stop.", res.Text)
}

func TestNormalizeEmptyText(t *testing.T) {
	m := Mapping{}
	res := Normalize("", nil, m)

	assert.Empty(t, res.Text)
	assert.Empty(t, res.Added)
	assert.Empty(t, m)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "woman 2", Label("Woman", "Two"))
	assert.Equal(t, "man 1", Label("MAN", "01"))
	assert.Equal(t, "security guard", Label("Security   Guard", ""))
}
