package databases

import "go.mongodb.org/mongo-driver/mongo/options"

// findPage translates a 1-based page and a per-page limit into mongo find
// options. The sort is applied inside the same options so paginated reads
// stay stable between requests.
type findPage struct {
	limit int64
	page  int64
	sort  interface{}
}

func newFindPage(limit, page int) *findPage {
	return &findPage{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (p *findPage) sortedBy(sort interface{}) *findPage {
	p.sort = sort
	return p
}

func (p *findPage) opts() *options.FindOptions {
	fOpt := options.Find().
		SetLimit(p.limit).
		SetSkip(p.page*p.limit - p.limit)
	if p.sort != nil {
		fOpt.SetSort(p.sort)
	}
	return fOpt
}
