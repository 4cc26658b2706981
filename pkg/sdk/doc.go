// Package courserec provides an embeddable Go client for the course
// recommendation pipeline: semantic retrieval over a course catalog with
// per-identity rate limiting, daily quotas, and usage accounting.
//
//	client, _ := courserec.New(ctx,
//	    courserec.WithRedis("localhost:6379", ""),
//	    courserec.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	    courserec.WithCorpusFile("data/courses.json"),
//	)
//	defer client.Close()
//
//	result, _ := client.Recommend(ctx, courserec.Request{
//	    Query:      "machine learning with applications",
//	    MaxResults: 5,
//	}, courserec.Identity{UserID: "u1", Role: "student"})
//
// Callers without a Redis or Valkey instance can use WithMemory for an
// in-process cache; counters then reset on restart.
package courserec
