package sentiment

// Sentiment is the overall market mood reported by the model.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Recommendation is the model's trading call.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "Buy"
	RecommendationSell Recommendation = "Sell"
	RecommendationHold Recommendation = "Hold"
)

// Aspect keys that are always present in SentimentAnalysis.AspectSentiment.
const (
	AspectFinancials     = "financials"
	AspectManagement     = "management"
	AspectMarketPosition = "marketPosition"
	AspectProduct        = "product"
)

var requiredAspects = []string{AspectFinancials, AspectManagement, AspectMarketPosition}

// AnalysisRequest identifies the stock to analyze, with optional per-request
// model overrides. Empty overrides fall back to persisted settings.
type AnalysisRequest struct {
	Symbol   string
	Exchange string
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// PointReason is a single argument for or against the stock.
type PointReason struct {
	Point  string `json:"point"`
	Reason string `json:"reason"`
}

// NewsArticle is a recent news item cited by the model.
type NewsArticle struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URI     string `json:"uri"`
}

// HistoricalDataPoint is one monthly sample. Only Date is guaranteed.
type HistoricalDataPoint struct {
	Date           string   `json:"date"`
	Price          *float64 `json:"price"`
	MA50           *float64 `json:"ma50,omitempty"`
	MA200          *float64 `json:"ma200,omitempty"`
	RSI14          *float64 `json:"rsi14,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	SentimentScore *float64 `json:"sentimentScore,omitempty"`
}

// TechnicalIndicators holds the current indicator values.
type TechnicalIndicators struct {
	MovingAverage50  float64 `json:"movingAverage50"`
	MovingAverage200 float64 `json:"movingAverage200"`
	RSI14            float64 `json:"rsi14"`
}

// DataSource is a grounding citation attached to an analysis.
type DataSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SentimentAnalysis is the validated result of one analysis request.
type SentimentAnalysis struct {
	CompanyName           string                `json:"companyName"`
	StockSymbol           string                `json:"stockSymbol"`
	OverallSentiment      Sentiment             `json:"overallSentiment"`
	SentimentScore        float64               `json:"sentimentScore"`
	Summary               string                `json:"summary"`
	Recommendation        Recommendation        `json:"recommendation"`
	RecommendationSummary string                `json:"recommendationSummary"`
	PositivePoints        []PointReason         `json:"positivePoints"`
	NegativePoints        []PointReason         `json:"negativePoints"`
	CurrentPrice          float64               `json:"currentPrice"`
	CurrencySymbol        string                `json:"currencySymbol"`
	FiftyTwoWeekHigh      float64               `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow       float64               `json:"fiftyTwoWeekLow"`
	CurrentVolume         *float64              `json:"currentVolume,omitempty"`
	AverageVolume         *float64              `json:"averageVolume,omitempty"`
	TechnicalIndicators   TechnicalIndicators   `json:"technicalIndicators"`
	AspectSentiment       map[string]*float64   `json:"aspectSentiment"`
	HistoricalData        []HistoricalDataPoint `json:"historicalData"`
	NewsArticles          []NewsArticle         `json:"newsArticles"`
	DataSources           []DataSource          `json:"dataSources"`
}

// RawModelResponse is what a ModelInvoker hands back: free-form text plus
// whatever grounding metadata the provider attached.
type RawModelResponse struct {
	Text      string
	Model     string
	Grounding []GroundingMetadata
}
