// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blocklist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/github"
)

func statuses(res *Result) []string {
	out := make([]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		out[i] = o.Login + ":" + o.Status.String()
	}
	return out
}

func TestRun_SkipsAlreadyBlocked(t *testing.T) {
	client := github.NewMockClient(
		github.WithRelationships(github.Blocked, github.Identity{Login: "Spammer", ID: 7}),
		github.WithPageSize(1),
	)

	res, err := New(client, nil).Run(context.Background(), []string{"spammer", "troll"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"spammer:already_blocked", "troll:blocked"}
	if fmt.Sprint(statuses(res)) != fmt.Sprint(want) {
		t.Errorf("outcomes = %v, want %v", statuses(res), want)
	}
	if fmt.Sprint(client.BlockCalls) != "[troll]" {
		t.Errorf("block calls = %v, want only troll", client.BlockCalls)
	}
}

func TestRun_Idempotent(t *testing.T) {
	client := github.NewMockClient(
		github.WithRelationships(github.Blocked, github.Identity{Login: "a", ID: 1}),
		github.WithBlockError("ghost", fmt.Errorf("user 'ghost' not found: %w", rostererrors.ErrNotFound)),
	)
	targets := []string{"a", "b", "ghost", "c"}
	r := New(client, nil)

	first, err := r.Run(context.Background(), targets, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Blocked != 2 || first.AlreadyBlocked != 1 || first.Failed != 1 {
		t.Errorf("first run counts = %+v", first)
	}
	callsAfterFirst := len(client.BlockCalls)

	second, err := r.Run(context.Background(), targets, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a:already_blocked", "b:already_blocked", "ghost:failed", "c:already_blocked"}
	if fmt.Sprint(statuses(second)) != fmt.Sprint(want) {
		t.Errorf("second run = %v, want %v", statuses(second), want)
	}
	if extra := client.BlockCalls[callsAfterFirst:]; fmt.Sprint(extra) != "[ghost]" {
		t.Errorf("second run issued %v, want only the failed target", extra)
	}
}

func TestRun_PreservesOrderWithDuplicates(t *testing.T) {
	client := github.NewMockClient()
	var streamed []Outcome

	res, err := New(client, nil).Run(context.Background(),
		[]string{"x", "X", " y ", "", "x"},
		func(o Outcome) { streamed = append(streamed, o) })
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"x:blocked", "X:already_blocked", "y:blocked", ":failed", "x:already_blocked"}
	if got := statuses(res); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("outcomes = %q, want %q", got, want)
	}
	if len(streamed) != len(res.Outcomes) {
		t.Errorf("callback saw %d outcomes, want %d", len(streamed), len(res.Outcomes))
	}
	if res.Outcomes[3].Reason != "empty username" {
		t.Errorf("empty target reason = %q", res.Outcomes[3].Reason)
	}
	if len(client.BlockCalls) != 2 {
		t.Errorf("block calls = %v, want 2", client.BlockCalls)
	}
}

func TestRun_TargetFailureDoesNotAbort(t *testing.T) {
	client := github.NewMockClient(
		github.WithBlockError("u2", fmt.Errorf("user 'u2' rejected: %w", rostererrors.ErrTargetFailed)),
	)

	res, err := New(client, nil).Run(context.Background(), []string{"u1", "u2", "u3", "u4", "u5"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"u1:blocked", "u2:failed", "u3:blocked", "u4:blocked", "u5:blocked"}
	if got := statuses(res); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
	if res.Outcomes[1].Reason == "" {
		t.Error("failed outcome has no reason")
	}
	if res.Complete() {
		t.Error("Complete() = true with a failed target")
	}
}

func TestRun_FatalErrorAborts(t *testing.T) {
	client := github.NewMockClient(
		github.WithBlockError("u3", fmt.Errorf("session: %w", rostererrors.ErrInvalidToken)),
	)

	res, err := New(client, nil).Run(context.Background(), []string{"u1", "u2", "u3", "u4"}, nil)

	var partial *rostererrors.PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("error = %v, want PartialError", err)
	}
	if partial.Processed != 2 || partial.Succeeded != 2 {
		t.Errorf("partial = %+v, want 2 processed, 2 succeeded", partial)
	}
	if !errors.Is(err, rostererrors.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
	if len(res.Outcomes) != 2 {
		t.Errorf("outcomes = %v, want the two completed targets", statuses(res))
	}
	for _, login := range client.BlockCalls {
		if login == "u4" {
			t.Error("run continued after a fatal error")
		}
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("anonymous session", func(t *testing.T) {
		client := github.NewMockClient(github.WithAnonymousSession())
		res, err := New(client, nil).Run(context.Background(), []string{"a"}, nil)
		if !errors.Is(err, rostererrors.ErrAuthRequired) {
			t.Errorf("error = %v, want ErrAuthRequired", err)
		}
		if len(res.Outcomes) != 0 || len(client.BlockCalls) != 0 {
			t.Error("anonymous run issued blocks")
		}
	})

	t.Run("cancelled between targets", func(t *testing.T) {
		client := github.NewMockClient()
		ctx, cancel := context.WithCancel(context.Background())
		res, err := New(client, nil).Run(ctx, []string{"a", "b", "c"}, func(Outcome) { cancel() })

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if len(res.Outcomes) != 1 || len(client.BlockCalls) != 1 {
			t.Errorf("outcomes = %v, calls = %v", statuses(res), client.BlockCalls)
		}
	})
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		Blocked:        "blocked",
		AlreadyBlocked: "already_blocked",
		Failed:         "failed",
		Status(9):      "Status(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
