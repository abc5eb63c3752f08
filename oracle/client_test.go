package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixed(choice string) Fallback {
	return func() (string, bool) { return choice, true }
}

func reply(body string) Transport {
	return TransportFunc(func(ctx context.Context, req Request) ([]byte, error) {
		return []byte(fmt.Sprintf(body, req.ID)), nil
	})
}

func TestDecideTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocking := TransportFunc(func(ctx context.Context, req Request) ([]byte, error) {
		<-release // ignores ctx on purpose
		return nil, nil
	})

	const bound = 50 * time.Millisecond
	c := NewClient(blocking, WithTimeout(bound))

	start := time.Now()
	d := c.Decide(context.Background(), NewRequest(KindUse, View{}, nil), fixed("Shield"))
	elapsed := time.Since(start)

	require.Equal(t, SourceFallback, d.Source)
	require.Equal(t, "Shield", d.Choice)
	require.False(t, d.Skip)
	require.GreaterOrEqual(t, elapsed, bound)
	require.Less(t, elapsed, bound+250*time.Millisecond, "Decide should return within the bound plus a small epsilon")
}

func TestDecideFallsBack(t *testing.T) {
	candidates := []string{"Shield", "Bomb"}

	tests := []struct {
		name      string
		transport Transport
	}{
		{"no transport", nil},
		{"transport error", TransportFunc(func(context.Context, Request) ([]byte, error) { return nil, errors.New("connection refused") })},
		{"transport panic", TransportFunc(func(context.Context, Request) ([]byte, error) { panic("boom") })},
		{"not json", reply("nope %s")},
		{"wrong id", TransportFunc(func(context.Context, Request) ([]byte, error) { return []byte(`{"id":"other","choice":"Bomb"}`), nil })},
		{"unknown field", reply(`{"id":%q,"choice":"Bomb","confidence":0.9}`)},
		{"wrong type", reply(`{"id":%q,"choice":3}`)},
		{"not a candidate", reply(`{"id":%q,"choice":"Pogo Stick"}`)},
		{"trailing data", reply(`{"id":%q,"choice":"Bomb"} {}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.transport, WithTimeout(time.Second))
			d := c.Decide(context.Background(), NewRequest(KindBuy, View{}, candidates), fixed("Shield"))
			require.Equal(t, SourceFallback, d.Source)
			require.Equal(t, "Shield", d.Choice)
		})
	}
}

func TestDecideUsesOracle(t *testing.T) {
	t.Run("valid choice", func(t *testing.T) {
		c := NewClient(reply(`{"id":%q,"choice":"Bomb"}`))
		d := c.Decide(context.Background(), NewRequest(KindBuy, View{}, []string{"Shield", "Bomb"}), fixed("Shield"))
		require.Equal(t, Decision{Choice: "Bomb", Source: SourceOracle, Latency: d.Latency}, d)
	})

	t.Run("null choice skips", func(t *testing.T) {
		c := NewClient(reply(`{"id":%q,"choice":null}`))
		d := c.Decide(context.Background(), NewRequest(KindUse, View{}, nil), fixed("Shield"))
		require.True(t, d.Skip)
		require.Equal(t, SourceOracle, d.Source)
	})

	t.Run("fallback may skip", func(t *testing.T) {
		c := NewClient(nil)
		d := c.Decide(context.Background(), NewRequest(KindUse, View{}, nil), func() (string, bool) { return "", false })
		require.True(t, d.Skip)
		require.Equal(t, SourceFallback, d.Source)
	})
}
