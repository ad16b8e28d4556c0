package sink

import "github.com/metrico/datareader/reader/shared"

// Collector keeps every record in memory.
type Collector struct {
	columns []string
	records []*shared.Record
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Accept(rec *shared.Record) error {
	if c.columns == nil {
		c.columns = columnsOf(rec, "")
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *Collector) Finish() (*Result, error) {
	return &Result{
		Columns: c.columns,
		Records: c.records,
		Rows:    int64(len(c.records)),
	}, nil
}
