package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/content-platform-api/internal/config"
	"github.com/content-platform-api/internal/mocks"
	"github.com/content-platform-api/internal/models"
	"github.com/content-platform-api/internal/repository"
	"github.com/content-platform-api/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	articleA = "6f1c2f4e-5a9b-4c1d-9e2f-0a1b2c3d4e5f"
	articleB = "0b7f9c3a-2d4e-4f6a-8b1c-9d0e1f2a3b4c"
	alice    = "a11ce000-0000-4000-8000-000000000001"
	bob      = "b0b00000-0000-4000-8000-000000000002"
)

type fixture struct {
	comments *mocks.MockCommentRepository
	users    *mocks.MockUserRepository
	svc      service.CommentService
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	comments := mocks.NewMockCommentRepository()
	users := mocks.NewMockUserRepository()
	users.Add(alice, "Alice")
	users.Add(bob, "Bob")

	cfg := &config.Config{Comments: config.CommentConfig{MaxWords: 500, MaxPageLimit: 100}}
	repos := &repository.Repositories{User: users, Comment: comments}
	return &fixture{
		comments: comments,
		users:    users,
		svc:      service.NewServices(repos, cfg, zerolog.Nop()).Comment,
	}
}

func (f *fixture) create(t testing.TB, author, article, parent, content string) *models.Comment {
	t.Helper()
	c, err := f.svc.Create(context.Background(), author, &models.CreateCommentRequest{
		Content:         content,
		ArticleID:       article,
		ParentCommentID: parent,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return c
}

// seedChain stores C1 <- C2 <- C3 on articleA, all by alice
func (f *fixture) seedChain(t testing.TB) (c1, c2, c3 *models.Comment) {
	t.Helper()
	c1 = f.create(t, alice, articleA, "", "first")
	c2 = f.create(t, alice, articleA, c1.ID, "second")
	c3 = f.create(t, alice, articleA, c2.ID, "third")
	return c1, c2, c3
}

func assertKind(t *testing.T, err error, want service.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	if got := service.KindOf(err); got != want {
		t.Fatalf("Expected %s error, got %s (%v)", want, got, err)
	}
}

func TestCreate_TopLevel(t *testing.T) {
	f := newFixture(t)

	c := f.create(t, alice, articleA, "", "  hello <b>world</b> ")

	if c.ParentID != nil {
		t.Errorf("Expected no parent, got %v", *c.ParentID)
	}
	if c.Content != "hello world" {
		t.Errorf("Expected sanitized content, got %q", c.Content)
	}
	if c.AuthorName != "Alice" {
		t.Errorf("Expected author name Alice, got %q", c.AuthorName)
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		t.Errorf("Expected UUID id, got %q", c.ID)
	}

	list, err := f.svc.ListTopLevel(context.Background(), articleA, models.Page{})
	if err != nil {
		t.Fatalf("ListTopLevel failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Errorf("Expected the new comment in top-level list, got %v", list)
	}
}

func TestCreate_Reply(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, alice, articleA, "", "parent")
	reply := f.create(t, bob, articleA, parent.ID, "reply")

	if reply.ParentID == nil || *reply.ParentID != parent.ID {
		t.Fatalf("Expected parent %s, got %v", parent.ID, reply.ParentID)
	}

	list, _ := f.svc.ListTopLevel(context.Background(), articleA, models.Page{})
	for _, c := range list {
		if c.ID == reply.ID {
			t.Error("Reply must not appear in the top-level list")
		}
	}

	tree, err := f.svc.ExpandWithReplies(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != reply.ID {
		t.Errorf("Expected reply as only child, got %+v", tree.Children)
	}
	if tree.Children[0].AuthorName != "Bob" {
		t.Errorf("Expected author name Bob, got %q", tree.Children[0].AuthorName)
	}

	stored, _ := f.comments.GetByID(context.Background(), parent.ID)
	if len(stored.Replies) != 1 || stored.Replies[0] != reply.ID {
		t.Errorf("Expected parent replies [%s], got %v", reply.ID, stored.Replies)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateCommentRequest
	}{
		{"empty content", models.CreateCommentRequest{Content: "", ArticleID: articleA}},
		{"whitespace content", models.CreateCommentRequest{Content: "   \n\t", ArticleID: articleA}},
		{"markup only", models.CreateCommentRequest{Content: "<img src=x>", ArticleID: articleA}},
		{"too many words", models.CreateCommentRequest{Content: strings.Repeat("word ", 501), ArticleID: articleA}},
		{"missing article", models.CreateCommentRequest{Content: "hi"}},
		{"malformed article", models.CreateCommentRequest{Content: "hi", ArticleID: "not-an-id"}},
		{"malformed parent", models.CreateCommentRequest{Content: "hi", ArticleID: articleA, ParentCommentID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := tt.req
			_, err := f.svc.Create(context.Background(), alice, &req)
			assertKind(t, err, service.KindValidation)

			if n, _ := f.comments.Count(context.Background()); n != 0 {
				t.Errorf("Expected nothing persisted, got %d comments", n)
			}
		})
	}
}

func TestCreate_MissingParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), alice, &models.CreateCommentRequest{
		Content:         "orphan",
		ArticleID:       articleA,
		ParentCommentID: uuid.New().String(),
	})
	assertKind(t, err, service.KindNotFound)
	if !errors.Is(err, service.ErrNotFound) {
		t.Error("Expected errors.Is(err, ErrNotFound)")
	}
}

func TestCreate_ParentOnOtherArticle(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, alice, articleA, "", "on A")

	_, err := f.svc.Create(context.Background(), alice, &models.CreateCommentRequest{
		Content:         "on B",
		ArticleID:       articleB,
		ParentCommentID: parent.ID,
	})
	assertKind(t, err, service.KindValidation)
}

func TestCreate_InsertFailure(t *testing.T) {
	f := newFixture(t)
	f.comments.InsertError = errors.New("connection refused")

	_, err := f.svc.Create(context.Background(), alice, &models.CreateCommentRequest{Content: "x", ArticleID: articleA})
	assertKind(t, err, service.KindStore)
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected store cause in message, got %q", err.Error())
	}
}

func TestCreate_RepliesCacheFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, alice, articleA, "", "parent")
	f.comments.AddReplyError = errors.New("write conflict")

	reply := f.create(t, alice, articleA, parent.ID, "reply")

	tree, err := f.svc.ExpandWithReplies(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != reply.ID {
		t.Error("Reply must be found through its parent pointer even with a stale cache")
	}
}

func TestCreate_ConcurrentRepliesKeepCache(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, alice, articleA, "", "parent")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), bob, &models.CreateCommentRequest{
				Content:         fmt.Sprintf("reply %d", i),
				ArticleID:       articleA,
				ParentCommentID: parent.ID,
			})
			if err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := f.comments.GetByID(context.Background(), parent.ID)
	if len(stored.Replies) != n {
		t.Errorf("Expected %d cached replies, got %d", n, len(stored.Replies))
	}
}

func TestListTopLevel_NewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.comments.Seed(&models.Comment{
			ID:        fmt.Sprintf("00000000-0000-4000-8000-00000000000%d", i),
			Content:   fmt.Sprintf("c%d", i),
			AuthorID:  alice,
			ArticleID: articleA,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	// other article
	f.comments.Seed(&models.Comment{ID: uuid.New().String(), Content: "b", AuthorID: bob, ArticleID: articleB, CreatedAt: base})

	list, err := f.svc.ListTopLevel(context.Background(), articleA, models.Page{})
	if err != nil {
		t.Fatalf("ListTopLevel failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(list))
	}
	if list[0].Content != "c2" || list[2].Content != "c0" {
		t.Errorf("Expected newest first, got %s..%s", list[0].Content, list[2].Content)
	}
	for _, c := range list {
		if c.AuthorName != "Alice" {
			t.Errorf("Expected author name on %s", c.ID)
		}
	}
}

func TestListTopLevel_Pagination(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.comments.Seed(&models.Comment{
			ID:        uuid.New().String(),
			Content:   fmt.Sprintf("c%d", i),
			AuthorID:  alice,
			ArticleID: articleA,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	list, err := f.svc.ListTopLevel(context.Background(), articleA, models.Page{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListTopLevel failed: %v", err)
	}
	if len(list) != 2 || list[0].Content != "c2" || list[1].Content != "c1" {
		t.Errorf("Unexpected second page: %v", contents(list))
	}

	_, err = f.svc.ListTopLevel(context.Background(), articleA, models.Page{Limit: -1})
	assertKind(t, err, service.KindValidation)
}

func TestListTopLevel_UnknownArticle(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.ListTopLevel(context.Background(), uuid.New().String(), models.Page{})
	if err != nil {
		t.Fatalf("Expected no error for unknown article, got %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %d", len(list))
	}
}

func TestListTopLevel_StoreError(t *testing.T) {
	f := newFixture(t)
	f.comments.FindError = errors.New("timeout")

	_, err := f.svc.ListTopLevel(context.Background(), articleA, models.Page{})
	assertKind(t, err, service.KindStore)
}

func TestListTopLevel_CachesAuthorLookups(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.create(t, alice, articleA, "", "same author")
	}
	f.users.GetCalls = 0

	if _, err := f.svc.ListTopLevel(context.Background(), articleA, models.Page{}); err != nil {
		t.Fatalf("ListTopLevel failed: %v", err)
	}
	if f.users.GetCalls != 1 {
		t.Errorf("Expected 1 author lookup, got %d", f.users.GetCalls)
	}
}

func TestExpandWithReplies_Chain(t *testing.T) {
	f := newFixture(t)
	c1, c2, c3 := f.seedChain(t)

	tree, err := f.svc.ExpandWithReplies(context.Background(), c1.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}
	if tree.ID != c1.ID || len(tree.Children) != 1 {
		t.Fatalf("Expected C1 with one child, got %s with %d", tree.ID, len(tree.Children))
	}
	n2 := tree.Children[0]
	if n2.ID != c2.ID || len(n2.Children) != 1 {
		t.Fatalf("Expected C2 with one child, got %s with %d", n2.ID, len(n2.Children))
	}
	n3 := n2.Children[0]
	if n3.ID != c3.ID || n3.Children == nil || len(n3.Children) != 0 {
		t.Fatalf("Expected C3 as an empty leaf, got %s with %v", n3.ID, n3.Children)
	}
}

func TestExpandWithReplies_Completeness(t *testing.T) {
	f := newFixture(t)
	root := f.create(t, alice, articleA, "", "root")

	// three levels, fan-out three
	want := map[string]string{}
	level := []*models.Comment{root}
	for depth := 0; depth < 3; depth++ {
		var next []*models.Comment
		for _, p := range level {
			for i := 0; i < 3; i++ {
				c := f.create(t, bob, articleA, p.ID, fmt.Sprintf("d%d-%d", depth, i))
				want[c.ID] = p.ID
				next = append(next, c)
			}
		}
		level = next
	}

	tree, err := f.svc.ExpandWithReplies(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}

	seen := map[string]string{}
	var walk func(n *models.CommentNode)
	walk = func(n *models.CommentNode) {
		for _, c := range n.Children {
			if _, dup := seen[c.ID]; dup {
				t.Errorf("Comment %s appears twice", c.ID)
			}
			seen[c.ID] = n.ID
			walk(c)
		}
	}
	walk(tree)

	if len(seen) != len(want) {
		t.Fatalf("Expected %d descendants, got %d", len(want), len(seen))
	}
	for id, parent := range want {
		if seen[id] != parent {
			t.Errorf("Comment %s under %s, expected under %s", id, seen[id], parent)
		}
	}
}

func TestExpandWithReplies_ChildrenOldestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := &models.Comment{ID: uuid.New().String(), Content: "root", AuthorID: alice, ArticleID: articleA, CreatedAt: base}
	f.comments.Seed(root)
	for i := 2; i >= 0; i-- {
		pid := root.ID
		f.comments.Seed(&models.Comment{
			ID:        uuid.New().String(),
			Content:   fmt.Sprintf("r%d", i),
			AuthorID:  bob,
			ArticleID: articleA,
			ParentID:  &pid,
			CreatedAt: base.Add(time.Duration(i+1) * time.Minute),
		})
	}

	tree, err := f.svc.ExpandWithReplies(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}
	for i, c := range tree.Children {
		if want := fmt.Sprintf("r%d", i); c.Content != want {
			t.Errorf("Child %d: expected %s, got %s", i, want, c.Content)
		}
	}
}

func TestExpandWithReplies_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ExpandWithReplies(context.Background(), uuid.New().String())
	assertKind(t, err, service.KindNotFound)

	_, err = f.svc.ExpandWithReplies(context.Background(), "bad id")
	assertKind(t, err, service.KindValidation)
}

func TestExpandWithReplies_IgnoresStaleRepliesCache(t *testing.T) {
	f := newFixture(t)
	root := f.create(t, alice, articleA, "", "root")
	stale := uuid.New().String()
	f.comments.AddReply(context.Background(), root.ID, stale)

	tree, err := f.svc.ExpandWithReplies(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("ExpandWithReplies failed: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("Expected no children from stale cache, got %d", len(tree.Children))
	}
}

func TestExpandWithReplies_Cycle(t *testing.T) {
	f := newFixture(t)
	a := uuid.New().String()
	b := uuid.New().String()
	now := time.Now()
	// corrupt data: a and b are each other's parent
	f.comments.Seed(&models.Comment{ID: a, Content: "a", AuthorID: alice, ArticleID: articleA, ParentID: &b, CreatedAt: now})
	f.comments.Seed(&models.Comment{ID: b, Content: "b", AuthorID: alice, ArticleID: articleA, ParentID: &a, CreatedAt: now})

	_, err := f.svc.ExpandWithReplies(context.Background(), a)
	assertKind(t, err, service.KindDataIntegrity)

	_, err = f.svc.Delete(context.Background(), a, alice)
	assertKind(t, err, service.KindDataIntegrity)
	if n, _ := f.comments.Count(context.Background()); n != 2 {
		t.Errorf("Expected nothing deleted on cycle, got %d left", n)
	}
}

func TestExpandWithReplies_Cancelled(t *testing.T) {
	f := newFixture(t)
	c1, _, _ := f.seedChain(t)

	ctx, cancel := context.WithCancel(context.Background())
	f.comments.OnFind = func(repository.CommentFilter) { cancel() }

	_, err := f.svc.ExpandWithReplies(ctx, c1.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if f.comments.FindCalls != 1 {
		t.Errorf("Expected the walk to stop after 1 query, got %d", f.comments.FindCalls)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, alice, articleA, "", "before")
	before, _ := f.comments.GetByID(context.Background(), c.ID)
	time.Sleep(time.Millisecond)

	updated, err := f.svc.Update(context.Background(), c.ID, alice, "after")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Content != "after" {
		t.Errorf("Expected content after, got %q", updated.Content)
	}
	if !updated.UpdatedAt.After(before.UpdatedAt) {
		t.Error("Expected updatedAt to advance")
	}
	if updated.AuthorName != "Alice" {
		t.Errorf("Expected author name, got %q", updated.AuthorName)
	}

	stored, _ := f.comments.GetByID(context.Background(), c.ID)
	if stored.Content != "after" {
		t.Errorf("Expected stored content after, got %q", stored.Content)
	}
}

func TestUpdate_NonAuthorForbidden(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, alice, articleA, "", "mine")
	before, _ := f.comments.GetByID(context.Background(), c.ID)

	_, err := f.svc.Update(context.Background(), c.ID, bob, "hijacked")
	assertKind(t, err, service.KindForbidden)

	after, _ := f.comments.GetByID(context.Background(), c.ID)
	if after.Content != before.Content || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("Forbidden update must leave the comment unchanged")
	}
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, alice, articleA, "", "text")

	_, err := f.svc.Update(context.Background(), uuid.New().String(), alice, "x")
	assertKind(t, err, service.KindNotFound)

	_, err = f.svc.Update(context.Background(), c.ID, alice, "   ")
	assertKind(t, err, service.KindValidation)

	f.comments.UpdateError = errors.New("disk full")
	_, err = f.svc.Update(context.Background(), c.ID, alice, "x")
	assertKind(t, err, service.KindStore)
}

func TestCreateAndUpdate_AuthorLookupFailureKeepsWrite(t *testing.T) {
	f := newFixture(t)
	f.users.GetError = errors.New("users collection unavailable")

	c, err := f.svc.Create(context.Background(), alice, &models.CreateCommentRequest{Content: "kept", ArticleID: articleA})
	if err != nil {
		t.Fatalf("Create must succeed once the comment is stored, got %v", err)
	}
	if c.AuthorName != "" {
		t.Errorf("Expected empty author name, got %q", c.AuthorName)
	}
	if n, _ := f.comments.Count(context.Background()); n != 1 {
		t.Errorf("Expected exactly one stored comment, got %d", n)
	}

	updated, err := f.svc.Update(context.Background(), c.ID, alice, "edited")
	if err != nil {
		t.Fatalf("Update must succeed once the content is stored, got %v", err)
	}
	if updated.Content != "edited" || updated.AuthorName != "" {
		t.Errorf("Expected edited content with empty author name, got %+v", updated)
	}
}

func TestDelete_Chain(t *testing.T) {
	f := newFixture(t)
	c1, c2, c3 := f.seedChain(t)

	deleted, err := f.svc.Delete(context.Background(), c1.ID, alice)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	want := []string{c3.ID, c2.ID, c1.ID}
	for i, id := range want {
		if f.comments.DeletedOrder[i] != id {
			t.Errorf("Delete %d: expected %s, got %s", i, id, f.comments.DeletedOrder[i])
		}
	}

	list, _ := f.svc.ListTopLevel(context.Background(), articleA, models.Page{})
	if len(list) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(list))
	}
	for _, id := range want {
		_, err := f.svc.ExpandWithReplies(context.Background(), id)
		assertKind(t, err, service.KindNotFound)
	}
}

func TestDelete_ChildrenBeforeParents(t *testing.T) {
	f := newFixture(t)
	root := f.create(t, alice, articleA, "", "root")
	parents := map[string]string{}
	level := []*models.Comment{root}
	for depth := 0; depth < 3; depth++ {
		var next []*models.Comment
		for _, p := range level {
			for i := 0; i < 2; i++ {
				c := f.create(t, bob, articleA, p.ID, "x")
				parents[c.ID] = p.ID
				next = append(next, c)
			}
		}
		level = next
	}
	sibling := f.create(t, alice, articleA, "", "untouched")

	deleted, err := f.svc.Delete(context.Background(), root.ID, alice)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != len(parents)+1 {
		t.Errorf("Expected %d deleted, got %d", len(parents)+1, deleted)
	}

	position := map[string]int{}
	for i, id := range f.comments.DeletedOrder {
		position[id] = i
	}
	for child, parent := range parents {
		if position[child] > position[parent] {
			t.Errorf("Child %s deleted after its parent %s", child, parent)
		}
	}
	if last := f.comments.DeletedOrder[len(f.comments.DeletedOrder)-1]; last != root.ID {
		t.Errorf("Expected root deleted last, got %s", last)
	}

	// no orphans
	for _, c := range f.comments.Comments {
		if c.ParentID != nil {
			if _, gone := position[*c.ParentID]; gone {
				t.Errorf("Comment %s references deleted parent", c.ID)
			}
		}
	}
	if _, ok := f.comments.Comments[sibling.ID]; !ok {
		t.Error("Unrelated comment was deleted")
	}
}

func TestDelete_DetachesFromParent(t *testing.T) {
	f := newFixture(t)
	c1, c2, _ := f.seedChain(t)

	if _, err := f.svc.Delete(context.Background(), c2.ID, alice); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	stored, _ := f.comments.GetByID(context.Background(), c1.ID)
	if len(stored.Replies) != 0 {
		t.Errorf("Expected parent replies cleared, got %v", stored.Replies)
	}
	tree, _ := f.svc.ExpandWithReplies(context.Background(), c1.ID)
	if len(tree.Children) != 0 {
		t.Errorf("Expected no children left, got %d", len(tree.Children))
	}
}

func TestDelete_RepliesCacheFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	_, c2, _ := f.seedChain(t)
	f.comments.RemoveReplyError = errors.New("write conflict")

	deleted, err := f.svc.Delete(context.Background(), c2.ID, alice)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}
}

func TestDelete_Twice(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, alice, articleA, "", "once")

	if _, err := f.svc.Delete(context.Background(), c.ID, alice); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	_, err := f.svc.Delete(context.Background(), c.ID, alice)
	assertKind(t, err, service.KindNotFound)
}

func TestDelete_NonAuthorForbidden(t *testing.T) {
	f := newFixture(t)
	c1, _, _ := f.seedChain(t)

	_, err := f.svc.Delete(context.Background(), c1.ID, bob)
	assertKind(t, err, service.KindForbidden)
	if n, _ := f.comments.Count(context.Background()); n != 3 {
		t.Errorf("Expected all 3 comments kept, got %d", n)
	}
}

func TestDelete_PartialFailure(t *testing.T) {
	f := newFixture(t)
	root := f.create(t, alice, articleA, "", "root")
	for i := 0; i < 4; i++ {
		f.create(t, bob, articleA, root.ID, "reply")
	}
	f.comments.DeleteFailAfter = 3
	f.comments.DeleteError = errors.New("store unavailable")

	deleted, err := f.svc.Delete(context.Background(), root.ID, alice)
	assertKind(t, err, service.KindStore)
	if deleted != 3 {
		t.Errorf("Expected 3 deleted before failure, got %d", deleted)
	}
	// no rollback: the root and one reply remain
	if n, _ := f.comments.Count(context.Background()); n != 2 {
		t.Errorf("Expected 2 comments left, got %d", n)
	}
	if _, ok := f.comments.Comments[root.ID]; !ok {
		t.Error("Root must survive a failed cascade")
	}
}

func TestDelete_Cancelled(t *testing.T) {
	f := newFixture(t)
	c1, _, _ := f.seedChain(t)

	ctx, cancel := context.WithCancel(context.Background())
	f.comments.OnFind = func(repository.CommentFilter) { cancel() }

	_, err := f.svc.Delete(ctx, c1.ID, alice)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if n, _ := f.comments.Count(context.Background()); n != 3 {
		t.Errorf("Expected nothing deleted, got %d left", n)
	}
}

func TestStats_GetCount(t *testing.T) {
	comments := mocks.NewMockCommentRepository()
	users := mocks.NewMockUserRepository()
	users.Add(alice, "Alice")
	cfg := &config.Config{Comments: config.CommentConfig{MaxWords: 500}}
	svcs := service.NewServices(&repository.Repositories{User: users, Comment: comments}, cfg, zerolog.Nop())

	if n, err := svcs.Stats.GetCount(context.Background(), "users"); err != nil || n != 1 {
		t.Errorf("Expected 1 user, got %d (%v)", n, err)
	}
	if _, err := svcs.Stats.GetCount(context.Background(), "articles"); err == nil {
		t.Error("Expected error for unknown resource")
	}
	if err := svcs.Stats.Ping(context.Background()); err != nil {
		t.Errorf("Expected nil ping without a connection, got %v", err)
	}

	down := errors.New("down")
	svcs = service.NewServices(&repository.Repositories{
		User:    users,
		Comment: comments,
		Ping:    func(context.Context) error { return down },
	}, cfg, zerolog.Nop())
	if err := svcs.Stats.Ping(context.Background()); !errors.Is(err, down) {
		t.Errorf("Expected ping error, got %v", err)
	}
}

func contents(list []*models.Comment) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Content
	}
	return out
}

func BenchmarkExpandWithReplies(b *testing.B) {
	f := newFixture(b)
	root := f.create(b, alice, articleA, "", "root")
	level := []*models.Comment{root}
	for depth := 0; depth < 4; depth++ {
		var next []*models.Comment
		for _, p := range level {
			for i := 0; i < 4; i++ {
				next = append(next, f.create(b, bob, articleA, p.ID, "reply"))
			}
		}
		level = next
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.svc.ExpandWithReplies(context.Background(), root.ID); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeleteSubtree(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		f := newFixture(b)
		root := f.create(b, alice, articleA, "", "root")
		parent := root
		for d := 0; d < 50; d++ {
			parent = f.create(b, alice, articleA, parent.ID, "deep")
		}
		b.StartTimer()

		if _, err := f.svc.Delete(context.Background(), root.ID, alice); err != nil {
			b.Fatal(err)
		}
	}
}
