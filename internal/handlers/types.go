package handlers

// CreateShortURLRequest is the request for creating a short URL. The body is
// decoded by hand so malformed JSON reports the deserialization error code.
type CreateShortURLRequest struct {
	AuthKey string `doc:"API key of a registered user" header:"X-AUTH-KEY"`
	RawBody []byte `contentType:"application/json"     doc:"{\"url\": string, \"ttl\"?: seconds}"`
}

// createBody is the JSON payload of CreateShortURLRequest.
type createBody struct {
	URL *string `json:"url"`
	TTL *uint64 `json:"ttl"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Body struct {
		ShortURL string `doc:"The short URL"    example:"sho.rt/10wBU"              json:"short_url"`
		RawURL   string `doc:"The original URL" example:"https://example.com/page" json:"raw_url"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	ID string `doc:"The short identifier" example:"10wBU" path:"id"`
}

// RedirectResponse redirects to the stored destination.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The destination URL" header:"Location"`
}
