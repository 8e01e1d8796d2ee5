package main

// Stand-in content repository for local development. Serves the
// GraphQL shapes the panel issues, backed by data/comments.json held
// in memory. Mutations change the in-memory set only.

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
)

type seedComment struct {
	UUID        string `json:"uuid"`
	Path        string `json:"path"`
	Author      string `json:"author"`
	Comment     string `json:"comment"`
	Status      string `json:"status"`
	Approved    string `json:"approved"`
	Created     string `json:"created"`
	AuthorEmail string `json:"authorEmail"`
	IPHash      string `json:"ipHash"`
	UserAgent   string `json:"ua"`
}

type seedFile struct {
	Posts    map[string]string `json:"posts"` // uuid -> display title
	Comments []seedComment     `json:"comments"`
}

type repo struct {
	mu       sync.Mutex
	posts    map[string]string
	comments []seedComment
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	dataPath := flag.String("data", "data/comments.json", "seed JSON path")
	flag.Parse()

	b, err := os.ReadFile(*dataPath)
	if err != nil {
		log.Fatalf("cannot read %s: %v", *dataPath, err)
	}
	var seed seedFile
	if err := json.Unmarshal(b, &seed); err != nil {
		log.Fatalf("%s invalid JSON: %v", *dataPath, err)
	}

	r := &repo{posts: seed.Posts, comments: seed.Comments}
	if r.posts == nil {
		r.posts = map[string]string{}
	}

	http.HandleFunc("/graphql", r.handle)

	log.Printf("mockrepo listening on %s with %d comments", *addr, len(r.comments))
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func (r *repo) handle(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var gql gqlRequest
	if err := json.NewDecoder(req.Body).Decode(&gql); err != nil {
		writeErrors(w, "invalid request body")
		return
	}

	switch {
	case strings.Contains(gql.Query, "GetAllComments"):
		r.allComments(w)
	case strings.Contains(gql.Query, "GetPostById"):
		r.postByID(w, stringVar(gql.Variables, "postId"))
	case strings.Contains(gql.Query, "UpdateCommentStatus"):
		r.updateStatus(w,
			stringVar(gql.Variables, "commentId"),
			stringVar(gql.Variables, "status"),
			stringVar(gql.Variables, "approved"))
	case strings.Contains(gql.Query, "DeleteComment"):
		r.deleteComment(w, stringVar(gql.Variables, "commentId"))
	default:
		writeErrors(w, "unsupported operation")
	}
}

func stringVar(vars map[string]any, key string) string {
	s, _ := vars[key].(string)
	return s
}

func prop(v string) any {
	if v == "" {
		return nil
	}
	return map[string]any{"value": v}
}

func (r *repo) allComments(w http.ResponseWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := make([]map[string]any, 0, len(r.comments))
	for _, c := range r.comments {
		nodes = append(nodes, map[string]any{
			"uuid":        c.UUID,
			"path":        c.Path,
			"workspace":   "LIVE",
			"author":      prop(c.Author),
			"comment":     prop(c.Comment),
			"status":      prop(c.Status),
			"approved":    prop(c.Approved),
			"created":     prop(c.Created),
			"authorEmail": prop(c.AuthorEmail),
			"ipHash":      prop(c.IPHash),
			"ua":          prop(c.UserAgent),
		})
	}

	writeData(w, map[string]any{
		"jcr": map[string]any{
			"nodesByCriteria": map[string]any{"nodes": nodes},
		},
	})
}

func (r *repo) postByID(w http.ResponseWriter, postID string) {
	r.mu.Lock()
	title, ok := r.posts[postID]
	r.mu.Unlock()

	var node any
	if ok {
		node = map[string]any{
			"uuid":        postID,
			"workspace":   "LIVE",
			"displayName": title,
		}
	}
	writeData(w, map[string]any{
		"jcr": map[string]any{"nodeById": node},
	})
}

func (r *repo) updateStatus(w http.ResponseWriter, commentID, status, approved string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.comments {
		if r.comments[i].UUID == commentID {
			r.comments[i].Status = status
			r.comments[i].Approved = approved
			writeData(w, map[string]any{
				"jcr": map[string]any{"mutateNode": map[string]any{}},
			})
			return
		}
	}
	writeErrors(w, "node not found: "+commentID)
}

func (r *repo) deleteComment(w http.ResponseWriter, commentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.comments {
		if r.comments[i].UUID == commentID {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			writeData(w, map[string]any{
				"jcr": map[string]any{"deleteNode": true},
			})
			return
		}
	}
	writeErrors(w, "node not found: "+commentID)
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{"message": msg}},
	})
}
