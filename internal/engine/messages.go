package engine

const (
	msgChooseCategory      = "🔍 What would you like to classify? Please choose a category:"
	msgUseCategoryButtons  = "👆🏻 Please choose a category from the buttons below."
	msgNoSession           = "Send /classify to start a new classification."
	msgNothingToCancel     = "There is no classification in progress."
	msgCancelled           = "❌ Classification cancelled. Send /classify whenever you want to start again."
	msgSubmitting          = "⏳ Your submission is still being processed, please wait."
	msgStaleButton         = "⚠️ That button is no longer active."
	msgUseYesNoButtons     = "You have to choose yes or no from the buttons above👆🏻"
	msgUseCandidateButtons = "✨ You have to choose and click from the 🔢 number(s) above or click 🔄 Reenter"
	msgUseReviewButtons    = "👇🏻 Use the buttons below to edit or submit the data."
	msgLettersOnly         = "❌ Invalid format. Please use letters only."
	msgNoMatch             = "😕 No similar %s found. Please check the spelling and try again."

	msgSubmitted            = "✅ Your %s classification was submitted as No. %d. Thank you! 🎉"
	msgChannelFailure       = "❌ Failed to post to the group: %s\nNothing was saved. You can submit again."
	msgStoreFailure         = "❌ Submission failed at the %s stage: %s\nNothing was posted. You can submit again."
	msgPartialFailure       = "⚠️ Partial failure: the report was posted to the group, but saving the row failed: %s\nSubmitting again posts a new report to the group."
	msgResubmitAfterPartial = "⚠️ %d earlier report(s) of this classification are already in the group. This submission posts a new one."
)
