package quiz

const (
	ListQuizzesSQL       = listQuizzesSQL
	GetQuizSQL           = getQuizSQL
	UpsertQuizSQL        = upsertQuizSQL
	UpdateQuizTitleSQL   = updateQuizTitleSQL
	DeleteQuizSQL        = deleteQuizSQL
	ListQuestionsSQL     = listQuestionsSQL
	InsertQuestionSQL    = insertQuestionSQL
	DeleteQuestionsSQL   = deleteQuestionsSQL
	ListOptionsSQL       = listOptionsSQL
	InsertOptionSQL      = insertOptionSQL
	DeleteQuizOptionsSQL = deleteQuizOptionsSQL
)
