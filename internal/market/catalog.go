package market

import "time"

// Spec is a catalog entry used to seed an instrument at session start.
type Spec struct {
	Symbol        string
	Name          string
	Kind          string
	BasePrice     float64
	Volatility    float64
	Group         Group
	DividendYield float64
	Description   string
	CEO           string
	Founded       int
}

func DefaultCatalog() []Spec {
	return []Spec{
		{Symbol: "MSFT", Name: "Microsoft", Kind: "giant", BasePrice: 0.5, Volatility: 0.02, Group: GroupNASDAQ, DividendYield: 0.01,
			Description: "A global leader in software, services, devices and solutions that help people and businesses realize their full potential.",
			CEO:         "Satya Nadella", Founded: 1975},
		{Symbol: "AAPL", Name: "Apple", Kind: "giant", BasePrice: 0.2, Volatility: 0.03, Group: GroupNASDAQ, DividendYield: 0.005,
			Description: "Designs, manufactures and markets smartphones, personal computers, tablets, wearables and accessories worldwide.",
			CEO:         "Tim Cook", Founded: 1976},
		{Symbol: "GOOGL", Name: "Google", Kind: "tech_boom", BasePrice: 50, Volatility: 0.04, Group: GroupNASDAQ,
			Description: "Alphabet Inc. is a holding company that provides search and advertising services, cloud computing, and hardware.",
			CEO:         "Sundar Pichai", Founded: 1998},
		{Symbol: "AMZN", Name: "Amazon", Kind: "giant", BasePrice: 1.0, Volatility: 0.03, Group: GroupNASDAQ,
			Description: "Operates retail websites and focuses on e-commerce, cloud computing, online advertising, and digital streaming.",
			CEO:         "Andy Jassy", Founded: 1994},
		{Symbol: "NVDA", Name: "Nvidia", Kind: "tech_boom", BasePrice: 0.1, Volatility: 0.07, Group: GroupNASDAQ,
			Description: "The global leader in programmable graphics processor technologies, now a titan in AI and data centers.",
			CEO:         "Jensen Huang", Founded: 1993},
		{Symbol: "AMD", Name: "AMD", Kind: "volatile_growth", BasePrice: 5.0, Volatility: 0.06, Group: GroupNASDAQ,
			Description: "A semiconductor company that develops computer processors and related technologies for business and consumer markets.",
			CEO:         "Lisa Su", Founded: 1969},
		{Symbol: "TSLA", Name: "Tesla", Kind: "volatile_growth", BasePrice: 2.0, Volatility: 0.10, Group: GroupNASDAQ,
			Description: "Designs, develops, manufactures, sells and leases fully electric vehicles and energy generation and storage systems.",
			CEO:         "Elon Musk", Founded: 2003},

		{Symbol: "IBM", Name: "IBM", Kind: "steady", BasePrice: 25.0, Volatility: 0.015, Group: GroupNYSE, DividendYield: 0.04,
			Description: "International Business Machines Corporation is a multinational technology and consulting company.",
			CEO:         "Arvind Krishna", Founded: 1911},
		{Symbol: "KO", Name: "Coca-Cola", Kind: "steady", BasePrice: 10.0, Volatility: 0.01, Group: GroupNYSE, DividendYield: 0.03,
			Description: "The Coca-Cola Company is a beverage corporation, and manufacturer, retailer, and marketer of non-alcoholic beverages.",
			CEO:         "James Quincey", Founded: 1886},
		{Symbol: "JPM", Name: "JPMorgan", Kind: "steady", BasePrice: 20.0, Volatility: 0.015, Group: GroupNYSE, DividendYield: 0.025,
			Description: "A financial services firm and banking institution, providing investment banking, financial services for consumers and small businesses.",
			CEO:         "Jamie Dimon", Founded: 1799},

		{Symbol: "BTC", Name: "Bitcoin", Kind: "volatile_growth", BasePrice: 1.0, Volatility: 0.15, Group: GroupCrypto,
			Description: "The first decentralized digital currency, without a central bank or single administrator.",
			CEO:         "Satoshi Nakamoto", Founded: 2009},
	}
}

// DefaultLicenseCosts is the unlock price of each market group.
func DefaultLicenseCosts() map[Group]float64 {
	return map[Group]float64{
		GroupNASDAQ: 0,
		GroupNYSE:   5000,
		GroupLSE:    15000,
		GroupCrypto: 50000,
	}
}

// Groups lists market groups in unlock order.
func Groups() []Group {
	return []Group{GroupNASDAQ, GroupNYSE, GroupLSE, GroupCrypto}
}

func sectorFor(g Group) string {
	if g == GroupCrypto {
		return "Crypto"
	}
	return "Tech"
}

// Seed prices every catalog entry at date. The historical price wins when it
// is positive; otherwise the base price is used.
func Seed(specs []Spec, source PriceSource, date time.Time) []Instrument {
	day := dayOf(date)
	out := make([]Instrument, 0, len(specs))
	for _, s := range specs {
		price := s.BasePrice
		if source != nil {
			if p, ok := source.PriceAt(s.Symbol, day); ok && p > 0 {
				price = p
			}
		}
		if price < MinTick {
			price = MinTick
		}
		out = append(out, Instrument{
			Symbol:        s.Symbol,
			Name:          s.Name,
			Sector:        sectorFor(s.Group),
			Group:         s.Group,
			Price:         price,
			History:       []PricePoint{{Date: day, Price: price}},
			Volatility:    s.Volatility,
			DividendYield: s.DividendYield,
			Description:   s.Description,
			CEO:           s.CEO,
			Founded:       s.Founded,
		})
	}
	return out
}
