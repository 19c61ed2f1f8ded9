package news

import "time"

const dateLayout = "2006-01-02"

// Feed maps calendar days to headlines.
type Feed struct {
	headlines map[string]string
}

// NewFeed builds a feed from YYYY-MM-DD keyed headlines.
func NewFeed(headlines map[string]string) *Feed {
	f := &Feed{headlines: make(map[string]string, len(headlines))}
	for k, v := range headlines {
		f.headlines[k] = v
	}
	return f
}

func DefaultFeed() *Feed {
	return NewFeed(map[string]string{
		"1987-10-19": "BLACK MONDAY: Markets crash worldwide!",
		"1990-08-02": "Gulf War begins. Oil prices fluctuate.",
		"1995-08-09": "Netscape IPO sparks internet boom!",
		"1997-07-02": "Asian Financial Crisis begins.",
		"2000-03-10": "NASDAQ peaks. Dot-com bubble bursting?",
		"2001-09-11": "Market closed due to attacks.",
		"2008-09-15": "Lehman Brothers files for bankruptcy.",
		"2020-03-16": "COVID-19 fears trigger market crash.",
		"2021-01-28": "Meme stock frenzy! GME to the moon?",
	})
}

func (f *Feed) Check(date time.Time) (string, bool) {
	if f == nil {
		return "", false
	}
	h, ok := f.headlines[date.Format(dateLayout)]
	return h, ok
}
