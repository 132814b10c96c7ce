package redis

func definitionKey(quizID string) string {
	return "quiz:" + quizID + ":definition"
}

// activeKey is a hash of student -> start time for one quiz.
func activeKey(quizID string) string {
	return "quiz:" + quizID + ":active"
}

// resultsKey is a hash of student -> JSON result for one quiz.
func resultsKey(quizID string) string {
	return "quiz:" + quizID + ":results"
}
