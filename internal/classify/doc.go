// Package classify decides whether a transcript is worth keeping in the
// training corpus.
//
// Two predicates are applied in order. IsGibberish rejects transcription
// noise using character-class ratios over the trimmed text. A Classifier then
// rejects messages that are purely conversational (acknowledgements, thanks,
// encouragement) unless they carry digits or technical vocabulary. The
// conversational check runs in one of two strictness modes: Substring flags a
// conversational keyword anywhere in the message, Anchored requires the whole
// message to be made of conversational phrases (with a short-message
// allowance for encouragement).
//
// Vocabularies are immutable values. The defaults are curated for motorsport
// team radio; callers may substitute or extend them, for example from a YAML
// file via LoadVocabularyFile.
package classify
